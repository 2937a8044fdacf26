package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceText = `AGROINSUMOS DEL SUR S.A.
Factura A Nro: 00001-00012345
C.U.I.T.: 30-12345678-9
Fecha de Emisión: 10/03/2025
Vencimiento: 20/03/2020
Cantidad: 100
Precio Unitario: 1.000,00
Neto Gravado: 100.000,00
IVA 21%: 21.000,00
Total: 121.000,00
`

func invoiceOpts() Options {
	return Options{ReferenceYear: refYear}
}

func TestExtractInvoice(t *testing.T) {
	rec := ExtractInvoice(invoiceText, invoiceOpts())

	require.NotNil(t, rec.Emisor)
	assert.Equal(t, "AGROINSUMOS DEL SUR S.A.", *rec.Emisor)
	require.NotNil(t, rec.CUIT)
	assert.Equal(t, "30123456789", *rec.CUIT)
	require.NotNil(t, rec.NroComprobante)
	assert.Equal(t, "00001-00012345", *rec.NroComprobante)
	require.NotNil(t, rec.Cantidad)
	assert.Equal(t, 100.0, *rec.Cantidad)
	require.NotNil(t, rec.PrecioUnitario)
	assert.Equal(t, 1000.0, *rec.PrecioUnitario)
	require.NotNil(t, rec.Neto)
	assert.Equal(t, 100000.0, *rec.Neto)
	require.NotNil(t, rec.IVA)
	assert.Equal(t, 21000.0, *rec.IVA)
	require.NotNil(t, rec.Total)
	assert.Equal(t, 121000.0, *rec.Total)
}

func TestExtractInvoiceReconcilesDates(t *testing.T) {
	// The due year 2020 is an OCR misread of 2025: the reconciled
	// pair lands ten days after emission.
	rec := ExtractInvoice(invoiceText, invoiceOpts())

	assert.Equal(t, ISODate("2025-03-10"), rec.FechaEmision)
	assert.Equal(t, ISODate("2025-03-20"), rec.FechaVencimiento)
}

func TestExtractInvoiceRepairsImplausibleTotal(t *testing.T) {
	text := `PROVEEDOR SRL
Cantidad: 100
Precio Unitario: 1.000,00
IVA 21%: 21.000,00
Total: 950,00
`
	rec := ExtractInvoice(text, invoiceOpts())

	// 950 cannot cover 100 × 1000: the total is re-derived from the
	// computed subtotal plus the extracted tax.
	require.NotNil(t, rec.Total)
	assert.InDelta(t, 121000.0, *rec.Total, 0.01)
}

func TestExtractInvoiceFallsBackToDefaultTaxRate(t *testing.T) {
	text := `PROVEEDOR SRL
Cantidad: 100
Precio Unitario: 1.000,00
`
	rec := ExtractInvoice(text, invoiceOpts())

	require.NotNil(t, rec.Total)
	assert.InDelta(t, 121000.0, *rec.Total, 0.01)
}

func TestExtractInvoiceHonorsTotalConIVALabel(t *testing.T) {
	text := `PROVEEDOR SRL
Cantidad: 100
Precio Unitario: 1.000,00
Total: 950,00
Total c/IVA: 122.500,00
`
	rec := ExtractInvoice(text, invoiceOpts())

	require.NotNil(t, rec.Total)
	assert.InDelta(t, 122500.0, *rec.Total, 0.01)
}

func TestExtractInvoiceUSLocale(t *testing.T) {
	text := `SUPPLIER LLC
Neto Gravado: 1,250
`
	rec := ExtractInvoice(text, Options{ReferenceYear: refYear, Locale: LocaleUS})

	// Under the US locale a lone comma groups thousands.
	require.NotNil(t, rec.Neto)
	assert.Equal(t, 1250.0, *rec.Neto)
}

func TestExtractInvoiceEmptyInput(t *testing.T) {
	rec := ExtractInvoice("", invoiceOpts())
	assert.Nil(t, rec.Emisor)
	assert.Nil(t, rec.CUIT)
	assert.Nil(t, rec.NroComprobante)
	assert.True(t, rec.FechaEmision.IsZero())
	assert.True(t, rec.FechaVencimiento.IsZero())
	assert.Nil(t, rec.Total)
}

func TestExtractInvoiceAdversarialInput(t *testing.T) {
	// Non-document text yields a sparse record, never a panic.
	rec := ExtractInvoice("((([[[:::$$$///\n\n\x00\xff", invoiceOpts())
	assert.Nil(t, rec.CUIT)
	assert.Nil(t, rec.Total)
}
