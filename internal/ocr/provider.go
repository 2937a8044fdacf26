package ocr

import (
	"context"
	"fmt"

	"github.com/agroscan/liquidaciones-ocr-service/internal/models"
)

// Provider reads the raw text off a scanned document page. The text
// comes back as-is, misreads included: all field extraction and repair
// happens downstream in internal/extract.
type Provider interface {
	// Name identifies the provider in logs and responses.
	Name() string
	// ExtractText runs OCR on one image and returns its plain text.
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)
}

// NewProvider builds the provider selected by name, falling back to
// the configured default when name is empty.
func NewProvider(name string, cfg models.OCRConfig) (Provider, error) {
	if name == "" {
		name = cfg.DefaultProvider
	}
	switch name {
	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIProvider(cfg.OpenAI), nil
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return NewGeminiProvider(cfg.Gemini), nil
	default:
		return nil, fmt.Errorf("unknown OCR provider: %s", name)
	}
}

// ocrPrompt asks the vision model for a faithful transcription. The
// model must not fix what it reads: glyph repair is our job.
const ocrPrompt = `Transcribí el texto de este documento comercial argentino (factura o liquidación de granos) EXACTAMENTE como aparece, línea por línea.
No corrijas errores, no interpretes importes ni fechas, no agregues comentarios.
Respondé únicamente con el texto transcripto.`
