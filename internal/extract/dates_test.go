package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

const refYear = 2026

func TestToISODateShapes(t *testing.T) {
	cases := map[string]ISODate{
		"15/03/2024": "2024-03-15",
		"15-03-2024": "2024-03-15",
		"15.03.24":   "2024-03-15",
		"2024/03/15": "2024-03-15",
		"2024-03-15": "2024-03-15",
		"1/3/2024":   "2024-03-01",
	}
	for raw, want := range cases {
		assert.Equal(t, want, ToISODateAt(raw, refYear), "input %q", raw)
	}
}

func TestToISODateGlyphConfusion(t *testing.T) {
	// O→0, I/l→1, S→5, B→8, Z→2
	assert.Equal(t, ISODate("2024-03-15"), ToISODateAt("1S/O3/2O24", refYear))
	assert.Equal(t, ISODate("2021-12-18"), ToISODateAt("1B/IZ/2021", refYear))
}

func TestToISODateDayMonthSwap(t *testing.T) {
	// 15 cannot be a month; swapping recovers March 15.
	assert.Equal(t, ISODate("2024-03-15"), ToISODateAt("03/15/2024", refYear))
}

func TestToISODateRejectsImpossibleDates(t *testing.T) {
	for _, raw := range []string{"31/02/2024", "00/01/2024", "nada", "", "99/99/9999"} {
		assert.True(t, ToISODateAt(raw, refYear).IsZero(), "input %q", raw)
	}
}

func TestToISODateIdempotent(t *testing.T) {
	for _, raw := range []string{"15/03/2024", "1S/O3/2O24", "2025-12-31"} {
		once := ToISODateAt(raw, refYear)
		assert.Equal(t, once, ToISODateAt(string(once), refYear))
	}
}

func TestFormatDateARRoundTrip(t *testing.T) {
	assert.Equal(t, "15/03/2024", FormatDateAR(ToISODate("15/03/2024")))
	assert.Equal(t, "", FormatDateAR(""))
}

func TestFixYear(t *testing.T) {
	assert.Equal(t, 2024, FixYear(24, refYear))
	assert.Equal(t, 2026, FixYear(26, refYear))
	assert.Equal(t, 2027, FixYear(27, refYear))
	// Past refYear+1 the century rolls back.
	assert.Equal(t, 1928, FixYear(28, refYear))
	assert.Equal(t, 1999, FixYear(99, refYear))
}

func TestTwoDigitYearBounds(t *testing.T) {
	for yy := 0; yy < 100; yy++ {
		d := ToISODateAt(fmt.Sprintf("01/06/%02d", yy), refYear)
		if assert.False(t, d.IsZero()) {
			assert.GreaterOrEqual(t, d.Year(), refYear-99)
			assert.LessOrEqual(t, d.Year(), refYear+1)
		}
	}
}

func TestFourDigitYearRepair(t *testing.T) {
	// 2520 is a 0-for-5 misread of 2020: the in-band variant wins.
	assert.Equal(t, ISODate("2020-03-15"), ToISODateAt("15/03/2520", refYear))
	// A year already in the plausible band is never rewritten.
	assert.Equal(t, ISODate("2020-03-15"), ToISODateAt("15/03/2020", refYear))
}
