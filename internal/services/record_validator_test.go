package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroscan/liquidaciones-ocr-service/internal/extract"
)

func fptr(v float64) *float64 { return &v }
func sptr(s string) *string   { return &s }

func TestValidCUIT(t *testing.T) {
	assert.True(t, ValidCUIT("30123456781"))
	assert.True(t, ValidCUIT("20123456786"))

	assert.False(t, ValidCUIT("30123456789"))
	assert.False(t, ValidCUIT("3012345678"))
	assert.False(t, ValidCUIT("301234567812"))
	assert.False(t, ValidCUIT("3012345678a"))
	assert.False(t, ValidCUIT(""))
}

func TestValidateSettlementConsistent(t *testing.T) {
	v := NewRecordValidator()
	rec := &extract.SettlementRecord{
		CUITComprador:        sptr("30123456781"),
		COE:                  sptr("331234567890"),
		NroComprobante:       sptr("2024123456789"),
		CantidadKg:           fptr(30000),
		PrecioKg:             fptr(10),
		TotalOperacion:       fptr(300000),
		PagoSegunCondiciones: fptr(100000),
		IVARG4310:            fptr(21000),
		ImporteNetoAPagar:    fptr(121000),
	}

	result := v.ValidateSettlement(rec)

	assert.True(t, result.Valid)
	assert.False(t, result.NeedsReview)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 121000.0, result.Computed.NetoEsperado)
	assert.Equal(t, 300000.0, result.Computed.TotalEsperado)
}

func TestValidateSettlementNetMismatch(t *testing.T) {
	v := NewRecordValidator()
	rec := &extract.SettlementRecord{
		PagoSegunCondiciones: fptr(100000),
		IVARG4310:            fptr(21000),
		ImporteNetoAPagar:    fptr(100000),
	}

	result := v.ValidateSettlement(rec)

	require.Len(t, result.Errors, 1)
	assert.False(t, result.Valid)
	assert.Equal(t, "neto_mismatch", result.Errors[0].Code)
	assert.Equal(t, 121000.0, result.Errors[0].Expected)
	assert.Equal(t, 100000.0, result.Errors[0].Actual)
}

func TestValidateSettlementCOEFormat(t *testing.T) {
	v := NewRecordValidator()
	rec := &extract.SettlementRecord{
		COE: sptr("123456789012"),
	}

	result := v.ValidateSettlement(rec)

	assert.True(t, result.Valid)
	assert.True(t, result.NeedsReview)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "coe_unexpected_format", result.Warnings[0].Code)
}

func TestValidateSettlementComprobanteCollision(t *testing.T) {
	v := NewRecordValidator()
	rec := &extract.SettlementRecord{
		COE:            sptr("331234567890"),
		NroComprobante: sptr("331234567890"),
	}

	result := v.ValidateSettlement(rec)

	assert.True(t, result.NeedsReview)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "comprobante_coe_collision", result.Warnings[0].Code)
}

func TestValidateSettlementOperationTotalMismatch(t *testing.T) {
	v := NewRecordValidator()
	rec := &extract.SettlementRecord{
		CantidadKg:     fptr(30000),
		PrecioKg:       fptr(10),
		TotalOperacion: fptr(200000),
	}

	result := v.ValidateSettlement(rec)

	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "total_operacion_mismatch", result.Warnings[0].Code)
}

func TestValidateInvoiceConsistent(t *testing.T) {
	v := NewRecordValidator()
	rec := &extract.InvoiceRecord{
		CUIT:           sptr("30123456781"),
		Cantidad:       fptr(100),
		PrecioUnitario: fptr(1000),
		Neto:           fptr(100000),
		IVA:            fptr(21000),
		Total:          fptr(121000),
	}

	result := v.ValidateInvoice(rec)

	assert.True(t, result.Valid)
	assert.False(t, result.NeedsReview)
	assert.Equal(t, 100000.0, result.Computed.SubtotalCalculado)
	assert.Equal(t, 21000.0, result.Computed.IVAEsperado)
	assert.Equal(t, 121000.0, result.Computed.TotalEsperado)
}

func TestValidateInvoiceTotalMismatch(t *testing.T) {
	v := NewRecordValidator()
	rec := &extract.InvoiceRecord{
		Neto:  fptr(100000),
		IVA:   fptr(21000),
		Total: fptr(90000),
	}

	result := v.ValidateInvoice(rec)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "total_mismatch", result.Errors[0].Code)
	assert.Equal(t, 121000.0, result.Errors[0].Expected)
}

func TestValidateInvoiceIVAMismatch(t *testing.T) {
	v := NewRecordValidator()
	rec := &extract.InvoiceRecord{
		Neto: fptr(100000),
		IVA:  fptr(5000),
	}

	result := v.ValidateInvoice(rec)

	assert.True(t, result.Valid)
	assert.True(t, result.NeedsReview)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "iva_mismatch", result.Warnings[0].Code)
}

func TestValidateInvoiceBadCUIT(t *testing.T) {
	v := NewRecordValidator()
	rec := &extract.InvoiceRecord{
		CUIT: sptr("30123456789"),
		Neto: fptr(100000),
	}

	result := v.ValidateInvoice(rec)

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "cuit_invalid", result.Errors[0].Code)
}

func TestValidateInvoiceNoAmounts(t *testing.T) {
	v := NewRecordValidator()
	result := v.ValidateInvoice(&extract.InvoiceRecord{})

	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "no_amounts", result.Errors[0].Code)
}

func TestValidateInvoiceDueBeforeEmission(t *testing.T) {
	v := NewRecordValidator()
	rec := &extract.InvoiceRecord{
		Neto:             fptr(100000),
		FechaEmision:     extract.ISODate("2025-03-20"),
		FechaVencimiento: extract.ISODate("2025-03-10"),
	}

	result := v.ValidateInvoice(rec)

	assert.True(t, result.NeedsReview)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "venc_before_emision", result.Warnings[0].Code)
}
