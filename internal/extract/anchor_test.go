package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	text := "C.U.I.T.: 30-68233415-7"
	assert.Equal(t, "30-68233415-7", Get(text, cuitPattern, 1))
	assert.Equal(t, "", Get(text, `coe\s*:\s*(\d+)`, 1))
	// A broken pattern yields absence, never a panic.
	assert.Equal(t, "", Get(text, `([`, 1))
}

func TestNextAmountAfter(t *testing.T) {
	text := "Precio: 250,50 por unidad. Total: 1.000,00"
	v, ok := NextAmountAfter(text, `precio\s*:?`, AmountWindow{Chars: 40})
	assert.True(t, ok)
	assert.Equal(t, 250.50, v)

	_, ok = NextAmountAfter(text, `descuento\s*:?`, AmountWindow{Chars: 40})
	assert.False(t, ok)
}

func TestLastAmountAfterPicksLargest(t *testing.T) {
	// The kilogram figure must not shadow the peso total.
	text := "Total Operación: 50.000 Kg a $ 25,00 el kg $ 1.250.000,00"
	v, ok := LastAmountAfter(text, `total\s*operaci[oó]n\s*:?`, DefaultAmountWindow)
	assert.True(t, ok)
	assert.Equal(t, 1250000.00, v)
}

func TestAmountWindowBoundsSearch(t *testing.T) {
	text := "Subtotal: 100,00 ............................................ Otro: 999.999,00"
	v, ok := LastAmountAfter(text, `subtotal\s*:?`, AmountWindow{Chars: 20})
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)
}

func TestAmountsSkipDateFragments(t *testing.T) {
	// The date right after the label is not money; the importe is.
	text := "Vencimiento: 15/03/2024 Importe: 500,00"
	v, ok := NextAmountAfter(text, `vencimiento\s*:?`, AmountWindow{Chars: 40})
	assert.True(t, ok)
	assert.Equal(t, 500.0, v)
}

func TestNextDigitsAfter(t *testing.T) {
	text := "COE Nro 331234567890 emitido"
	assert.Equal(t, "331234567890", NextDigitsAfter(text, `coe\s*(?:nro)?`, 60))
	// Too-short runs are not identifiers.
	assert.Equal(t, "", NextDigitsAfter("Ref: 1234567", `ref\s*:?`, 60))
	// Absent label, absent value.
	assert.Equal(t, "", NextDigitsAfter(text, `cuit`, 60))
}
