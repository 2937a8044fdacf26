package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const settlementText = `LIQUIDACION PRIMARIA DE GRANOS
Comprador: CEREALES DEL PLATA S.A.
C.U.I.T.: 30-68233415-7
Fecha: 12/03/2025
COE: 331234567890
Nro de Comprobante: 2025000123456
Grano: Soja
Cantidad: 50000 Kg
Precio: 250,50
Total Operación: 50.000 Kg  $ 1.250.000,00
Pago según condiciones: 100.000,00
IVA RG 4310: 21.000,00
Importe Neto a Pagar: 120.999,00
`

func settlementOpts() Options {
	return Options{ReferenceYear: refYear}
}

func TestExtractSettlement(t *testing.T) {
	rec := ExtractSettlement(settlementText, settlementOpts())

	require.NotNil(t, rec.Comprador)
	assert.Equal(t, "CEREALES DEL PLATA S.A.", *rec.Comprador)
	require.NotNil(t, rec.CUITComprador)
	assert.Equal(t, "30682334157", *rec.CUITComprador)
	assert.Equal(t, ISODate("2025-03-12"), rec.Fecha)
	require.NotNil(t, rec.COE)
	assert.Equal(t, "331234567890", *rec.COE)
	require.NotNil(t, rec.NroComprobante)
	assert.Equal(t, "2025000123456", *rec.NroComprobante)
	require.NotNil(t, rec.Grano)
	assert.Equal(t, "Soja", *rec.Grano)
	require.NotNil(t, rec.CantidadKg)
	assert.Equal(t, 50000.0, *rec.CantidadKg)
	require.NotNil(t, rec.PrecioKg)
	assert.Equal(t, 250.50, *rec.PrecioKg)
	require.NotNil(t, rec.TotalOperacion)
	assert.Equal(t, 1250000.0, *rec.TotalOperacion)
}

func TestExtractSettlementNetOverride(t *testing.T) {
	// Pago según condiciones + IVA RG 4310 define the net amount,
	// overriding the directly printed (and misread) total.
	rec := ExtractSettlement(settlementText, settlementOpts())

	require.NotNil(t, rec.PagoSegunCondiciones)
	assert.Equal(t, 100000.0, *rec.PagoSegunCondiciones)
	require.NotNil(t, rec.IVARG4310)
	assert.Equal(t, 21000.0, *rec.IVARG4310)
	require.NotNil(t, rec.ImporteNetoAPagar)
	assert.Equal(t, 121000.0, *rec.ImporteNetoAPagar)
}

func TestExtractSettlementNoOverrideWithoutBothSources(t *testing.T) {
	text := "Importe Neto a Pagar: 120.999,00\nIVA RG 4310: 21.000,00"
	rec := ExtractSettlement(text, settlementOpts())

	require.NotNil(t, rec.ImporteNetoAPagar)
	assert.Equal(t, 120999.0, *rec.ImporteNetoAPagar)
}

func TestExtractSettlementDerivesTotalFromQuantity(t *testing.T) {
	text := "Cantidad: 1000\nPrecio: 250,50"
	rec := ExtractSettlement(text, settlementOpts())

	require.NotNil(t, rec.TotalOperacion)
	assert.InDelta(t, 250500.0, *rec.TotalOperacion, 0.01)
}

func TestExtractSettlementEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   \n  ", "texto sin campos"} {
		rec := ExtractSettlement(text, settlementOpts())
		assert.Nil(t, rec.Comprador)
		assert.Nil(t, rec.CUITComprador)
		assert.True(t, rec.Fecha.IsZero())
		assert.Nil(t, rec.COE)
		assert.Nil(t, rec.NroComprobante)
		assert.Nil(t, rec.TotalOperacion)
		assert.Nil(t, rec.ImporteNetoAPagar)
	}
}

func TestExtractSettlementKnownCOEHint(t *testing.T) {
	// The page lost its COE label but the caller already knows the
	// code: it still must not be picked as the comprobante.
	text := "Documento 331234567890 Registro 2025000123456"
	rec := ExtractSettlement(text, Options{ReferenceYear: refYear, KnownCOE: "331234567890"})

	require.NotNil(t, rec.COE)
	assert.Equal(t, "331234567890", *rec.COE)
	require.NotNil(t, rec.NroComprobante)
	assert.Equal(t, "2025000123456", *rec.NroComprobante)
}
