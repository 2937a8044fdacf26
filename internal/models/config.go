package models

// Config is the service configuration loaded from config.yaml, with
// environment overrides applied in cmd/server.
type Config struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	OCR        OCRConfig        `yaml:"ocr"`
	Extraction ExtractionConfig `yaml:"extraction"`
}

// OCRConfig selects and credentials the black-box text provider.
type OCRConfig struct {
	// DefaultProvider is "openai" or "gemini".
	DefaultProvider string `yaml:"default_provider"`

	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
}

// OpenAIConfig for OpenAI-compatible vision endpoints.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

// GeminiConfig for Google Gemini.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// ExtractionConfig exposes the vendor calibration knobs of the
// extraction engine. Zero values fall back to the engine defaults.
type ExtractionConfig struct {
	// WindowChars bounds the label-anchored amount search.
	WindowChars int `yaml:"window_chars"`
	// SkipUnits lists unit suffixes excluded from money matches.
	SkipUnits []string `yaml:"skip_units"`
	// TaxRate is the IVA rate used when a total must be derived.
	TaxRate float64 `yaml:"tax_rate"`
	// Locale is "ars" (default) or "us".
	Locale string `yaml:"locale"`
}
