package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/agroscan/liquidaciones-ocr-service/internal/models"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiProvider transcribes document images through Google Gemini.
type GeminiProvider struct {
	apiKey string
	model  string
}

// NewGeminiProvider builds the provider from config. The genai client
// is created per request: it carries the context of the call and is
// cheap to construct.
func NewGeminiProvider(cfg models.GeminiConfig) *GeminiProvider {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{apiKey: cfg.APIKey, model: model}
}

func (p *GeminiProvider) Name() string { return "gemini" }

// ExtractText sends the image as an inline blob and returns the
// model's transcription.
func (p *GeminiProvider) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(p.apiKey))
	if err != nil {
		return "", fmt.Errorf("gemini client init failed: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0),
	}

	format := strings.TrimPrefix(mimeType, "image/")
	if format == "" || format == mimeType {
		format = "jpeg"
	}

	resp, err := model.GenerateContent(ctx,
		genai.Text(ocrPrompt),
		genai.ImageData(format, image),
	)
	if err != nil {
		return "", fmt.Errorf("gemini vision request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini vision returned no candidates")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String()), nil
}
