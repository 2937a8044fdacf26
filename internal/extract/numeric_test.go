package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNumberBothSeparators(t *testing.T) {
	// Right-most separator is the decimal mark, grouping is stripped.
	v, ok := ToNumber("1.234,56")
	assert.True(t, ok)
	assert.Equal(t, 1234.56, v)

	v, ok = ToNumber("12.345.678,90")
	assert.True(t, ok)
	assert.Equal(t, 12345678.90, v)

	// US-shaped input with both separators: commas are grouping noise.
	v, ok = ToNumber("1,234.56")
	assert.True(t, ok)
	assert.Equal(t, 1234.56, v)
}

func TestToNumberCommaOnly(t *testing.T) {
	v, ok := ToNumber("250,50")
	assert.True(t, ok)
	assert.Equal(t, 250.50, v)

	// Under the US locale a lone comma groups thousands instead.
	v, ok = ToNumberIn("1,234", LocaleUS)
	assert.True(t, ok)
	assert.Equal(t, 1234.0, v)
}

func TestToNumberCurrencyAndWhitespace(t *testing.T) {
	v, ok := ToNumber("$ 1.250.000,00")
	assert.True(t, ok)
	assert.Equal(t, 1250000.0, v)

	v, ok = ToNumber("  1234.5  ")
	assert.True(t, ok)
	assert.Equal(t, 1234.5, v)
}

func TestToNumberInvalid(t *testing.T) {
	for _, raw := range []string{"abc", "", "  ", "$", "12.34.56.78,90,12"} {
		_, ok := ToNumber(raw)
		assert.False(t, ok, "input %q should be absent", raw)
	}
}
