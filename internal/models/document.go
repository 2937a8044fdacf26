package models

import (
	"time"

	"github.com/agroscan/liquidaciones-ocr-service/internal/extract"
)

// Document type discriminators accepted by the processing endpoint.
const (
	TipoFactura     = "factura"
	TipoLiquidacion = "liquidacion"
)

// Document is one processed page: the raw OCR text, the structured
// record extracted from it and the processing metadata persisted
// alongside.
type Document struct {
	ID        string `json:"id"`
	Tipo      string `json:"tipo"` // factura | liquidacion
	ObjectKey string `json:"objectKey,omitempty"`

	// Exactly one of the two records is set, matching Tipo.
	Factura     *extract.InvoiceRecord    `json:"factura,omitempty"`
	Liquidacion *extract.SettlementRecord `json:"liquidacion,omitempty"`

	RawText     string    `json:"rawText,omitempty"`
	ProcessedAt time.Time `json:"processedAt"`
}

// ProcessRequest carries the optional hints of one processing call.
type ProcessRequest struct {
	Tipo     string `json:"tipo"`
	Provider string `json:"provider,omitempty"` // "openai" | "gemini"
	// CoeConocido is a previously identified COE to exclude from the
	// comprobante candidate set.
	CoeConocido string `json:"coeConocido,omitempty"`
	// BiasYear pulls date repair toward a known fiscal period.
	BiasYear int `json:"biasYear,omitempty"`
}

// ProcessResponse is the output of one processing call.
type ProcessResponse struct {
	Success  bool      `json:"success"`
	Document *Document `json:"document,omitempty"`
	Error    string    `json:"error,omitempty"`

	OCRDuration   float64 `json:"ocrDuration,omitempty"`
	TotalDuration float64 `json:"totalDuration"`
}
