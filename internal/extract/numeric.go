package extract

import (
	"math"
	"strconv"
	"strings"
)

// Locale selects how ambiguous grouping/decimal separators are resolved
// when a numeric token carries only one kind of separator. Scanned
// documents from a single vendor never mix locales mid-page, so this is
// a per-deployment assumption, not something inferred per document.
type Locale int

const (
	// LocaleARS assumes Latin-American formatting: "1.234,56" style,
	// where a lone comma is a decimal mark.
	LocaleARS Locale = iota
	// LocaleUS assumes "1,234.56" style, where a lone comma groups
	// thousands.
	LocaleUS
)

// ToNumber resolves a locale-ambiguous numeric token into a float64
// using the default Latin-American locale. The second return value is
// false when the token does not contain a finite number; callers must
// treat that as "field absent", never as zero.
func ToNumber(raw string) (float64, bool) {
	return ToNumberIn(raw, LocaleARS)
}

// ToNumberIn is ToNumber with an explicit locale.
//
// Resolution rule: when both "." and "," are present, the comma is
// grouping noise and is stripped (OCR tends to re-insert commas in the
// wrong position, the dot already marks decimals once both survive).
// With a comma alone the locale decides: decimal mark under LocaleARS,
// grouping under LocaleUS. A dot alone is always decimal.
func ToNumberIn(raw string, loc Locale) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")

	switch {
	case hasDot && hasComma:
		if decimalCommaPattern(s) {
			// Unambiguous "1.234,56": dots group, comma is decimal.
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		if loc == LocaleARS {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// decimalCommaPattern reports whether a token that carries both
// separators clearly follows the "1.234,56" shape: a single comma to
// the right of every dot.
func decimalCommaPattern(s string) bool {
	return strings.Count(s, ",") == 1 && strings.LastIndex(s, ",") > strings.LastIndex(s, ".")
}
