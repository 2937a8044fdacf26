package services

import (
	"math"
	"regexp"

	"github.com/agroscan/liquidaciones-ocr-service/internal/extract"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field    string  `json:"field"`
	Code     string  `json:"code"`
	Expected float64 `json:"expected,omitempty"`
	Actual   float64 `json:"actual,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// ValidationWarning represents a non-critical issue
type ValidationWarning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ComputedValues holds the expected values derived from the extracted
// figures, for display next to the editable fields.
type ComputedValues struct {
	SubtotalCalculado float64 `json:"subtotal_calculado"`
	IVAEsperado       float64 `json:"iva_esperado"`
	TotalEsperado     float64 `json:"total_esperado"`
	NetoEsperado      float64 `json:"neto_esperado"`
}

// ValidationResult is the response from validation
type ValidationResult struct {
	Valid       bool                `json:"valid"`
	NeedsReview bool                `json:"needs_review"`
	Errors      []ValidationError   `json:"errors"`
	Warnings    []ValidationWarning `json:"warnings"`
	Computed    ComputedValues      `json:"computed"`
}

// RecordValidator cross-checks extracted invoice and settlement
// records. Deterministic: the same record always yields the same
// result.
type RecordValidator struct {
	tolerance float64 // percentage tolerance (0.05 = 5%)
	taxRate   float64
}

// NewRecordValidator creates a validator with the default 5% tolerance
// and 21% IVA rate.
func NewRecordValidator() *RecordValidator {
	return &RecordValidator{tolerance: 0.05, taxRate: 0.21}
}

// ValidateInvoice performs the cross-validations on an invoice record.
func (v *RecordValidator) ValidateInvoice(rec *extract.InvoiceRecord) *ValidationResult {
	result := newResult()

	subtotal := 0.0
	if rec.Cantidad != nil && rec.PrecioUnitario != nil {
		subtotal = *rec.Cantidad * *rec.PrecioUnitario
	} else if rec.Neto != nil {
		subtotal = *rec.Neto
	}
	ivaEsperado := subtotal * v.taxRate
	totalEsperado := subtotal + value(rec.IVA)

	result.Computed = ComputedValues{
		SubtotalCalculado: round2(subtotal),
		IVAEsperado:       round2(ivaEsperado),
		TotalEsperado:     round2(totalEsperado),
	}

	v.validateCUIT(rec.CUIT, result)
	v.validateIVA(rec.IVA, subtotal, ivaEsperado, result)
	v.validateInvoiceTotal(rec.Total, totalEsperado, result)
	v.validateDates(rec.FechaEmision, rec.FechaVencimiento, result)
	v.validateInvoiceCoherence(rec, result)

	return finish(result)
}

// ValidateSettlement performs the cross-validations on a settlement
// record.
func (v *RecordValidator) ValidateSettlement(rec *extract.SettlementRecord) *ValidationResult {
	result := newResult()

	totalEsperado := 0.0
	if rec.CantidadKg != nil && rec.PrecioKg != nil {
		totalEsperado = *rec.CantidadKg * *rec.PrecioKg
	}
	netoEsperado := value(rec.PagoSegunCondiciones) + value(rec.IVARG4310)

	result.Computed = ComputedValues{
		SubtotalCalculado: round2(totalEsperado),
		TotalEsperado:     round2(totalEsperado),
		NetoEsperado:      round2(netoEsperado),
	}

	v.validateCUIT(rec.CUITComprador, result)
	v.validateCOE(rec, result)
	v.validateOperationTotal(rec, totalEsperado, result)
	v.validateNetAmount(rec, netoEsperado, result)

	return finish(result)
}

// validateCUIT checks the AFIP mod-11 check digit.
func (v *RecordValidator) validateCUIT(cuit *string, result *ValidationResult) {
	if cuit == nil || *cuit == "" {
		return
	}
	if !ValidCUIT(*cuit) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "cuit",
			Code:    "cuit_invalid",
			Message: "CUIT con dígito verificador inválido",
		})
	}
}

// coePattern: COE codes are 12 digits; grain settlements issue them in
// the 33-prefixed range.
var coePattern = regexp.MustCompile(`^33\d{10}$`)

// validateCOE checks the COE shape and that it does not collide with
// the settlement's own document number.
func (v *RecordValidator) validateCOE(rec *extract.SettlementRecord, result *ValidationResult) {
	if rec.COE == nil || *rec.COE == "" {
		return
	}
	if !coePattern.MatchString(*rec.COE) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "coe",
			Code:    "coe_unexpected_format",
			Message: "COE fuera del formato esperado (33 + 10 dígitos)",
		})
	}
	if rec.NroComprobante != nil && *rec.NroComprobante == *rec.COE {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "nroComprobante",
			Code:    "comprobante_coe_collision",
			Message: "Nro de comprobante coincide con el COE",
		})
	}
}

// validateIVA checks the extracted IVA against the expected rate.
func (v *RecordValidator) validateIVA(iva *float64, subtotal, ivaEsperado float64, result *ValidationResult) {
	if iva == nil || subtotal <= 0 {
		return
	}
	diff := math.Abs(*iva - ivaEsperado)
	if diff > subtotal*v.tolerance {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "iva",
			Code:    "iva_mismatch",
			Message: "IVA no coincide con la tasa esperada sobre el neto",
		})
	}
}

// validateInvoiceTotal checks the total against subtotal + IVA.
func (v *RecordValidator) validateInvoiceTotal(total *float64, totalEsperado float64, result *ValidationResult) {
	if total == nil || totalEsperado <= 0 {
		return
	}
	diff := math.Abs(*total - totalEsperado)
	if diff > *total*v.tolerance {
		result.Errors = append(result.Errors, ValidationError{
			Field:    "total",
			Code:     "total_mismatch",
			Expected: round2(totalEsperado),
			Actual:   round2(*total),
			Message:  "Total no coincide con neto más IVA",
		})
	}
}

// validateDates flags a due date earlier than emission. Reconciliation
// upstream already tried to repair this; when it could not, the record
// needs human review.
func (v *RecordValidator) validateDates(emision, venc extract.ISODate, result *ValidationResult) {
	if emision.IsZero() || venc.IsZero() {
		return
	}
	e, okE := emision.Time()
	d, okD := venc.Time()
	if okE && okD && d.Before(e) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "fechaVencimiento",
			Code:    "venc_before_emision",
			Message: "Vencimiento anterior a la fecha de emisión",
		})
	}
}

// validateOperationTotal checks the operation total against quantity
// times unit price.
func (v *RecordValidator) validateOperationTotal(rec *extract.SettlementRecord, totalEsperado float64, result *ValidationResult) {
	if rec.TotalOperacion == nil || totalEsperado <= 0 {
		return
	}
	diff := math.Abs(*rec.TotalOperacion - totalEsperado)
	if diff > totalEsperado*v.tolerance {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "totalOperacion",
			Code:    "total_operacion_mismatch",
			Message: "Total operación no coincide con cantidad por precio",
		})
	}
}

// validateNetAmount checks the net payable against pago según
// condiciones plus IVA RG 4310.
func (v *RecordValidator) validateNetAmount(rec *extract.SettlementRecord, netoEsperado float64, result *ValidationResult) {
	if rec.ImporteNetoAPagar == nil || netoEsperado <= 0 {
		return
	}
	diff := math.Abs(*rec.ImporteNetoAPagar - netoEsperado)
	if diff > netoEsperado*v.tolerance {
		result.Errors = append(result.Errors, ValidationError{
			Field:    "importeNetoAPagar",
			Code:     "neto_mismatch",
			Expected: round2(netoEsperado),
			Actual:   round2(*rec.ImporteNetoAPagar),
			Message:  "Importe neto no coincide con pago más IVA RG 4310",
		})
	}
}

// validateInvoiceCoherence checks basic field coherence.
func (v *RecordValidator) validateInvoiceCoherence(rec *extract.InvoiceRecord, result *ValidationResult) {
	if rec.Neto == nil && rec.Cantidad == nil && rec.Total == nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "total",
			Code:    "no_amounts",
			Message: "No se pudo leer ningún importe de la factura",
		})
	}
	if rec.Neto != nil && rec.Total != nil && *rec.Total < *rec.Neto {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "total",
			Code:    "total_below_neto",
			Message: "Total menor al neto gravado",
		})
	}
}

// cuitWeights are the AFIP mod-11 weights for the first ten digits.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// ValidCUIT reports whether an 11-digit CUIT carries a correct mod-11
// check digit.
func ValidCUIT(cuit string) bool {
	if len(cuit) != 11 {
		return false
	}
	sum := 0
	for i, w := range cuitWeights {
		d := cuit[i]
		if d < '0' || d > '9' {
			return false
		}
		sum += int(d-'0') * w
	}
	check := 11 - sum%11
	switch check {
	case 11:
		check = 0
	case 10:
		check = 9
	}
	last := cuit[10]
	if last < '0' || last > '9' {
		return false
	}
	return int(last-'0') == check
}

func newResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}
}

func finish(result *ValidationResult) *ValidationResult {
	result.Valid = len(result.Errors) == 0
	result.NeedsReview = len(result.Warnings) > 0
	return result
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// round2 rounds to 2 decimal places
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
