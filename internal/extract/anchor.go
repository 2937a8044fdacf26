package extract

import (
	"regexp"
	"strings"
)

// AmountWindow tunes the money-token search that follows a label.
// Window size and unit exclusion are vendor layout calibration, not
// accounting rules, which is why they are parameters and not constants.
type AmountWindow struct {
	// Chars is the span searched after the end of the label match.
	Chars int
	// SkipUnits lists unit suffixes that disqualify a numeric token
	// from being money (quantities like "50.000 Kg" otherwise shadow
	// the peso total).
	SkipUnits []string
	// Locale resolves ambiguous separators in window tokens.
	Locale Locale
}

// DefaultAmountWindow matches the totals block of the settlement
// layouts this service is calibrated for.
var DefaultAmountWindow = AmountWindow{
	Chars:     160,
	SkipUnits: []string{"kg", "kgs", "tn", "lt", "lts", "qq"},
}

// Get returns the captured group of the first match of pattern in
// text, or "" when the pattern does not match or does not compile.
// Patterns are applied case-insensitively.
func Get(text, pattern string, group int) string {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(text)
	if m == nil || group >= len(m) {
		return ""
	}
	return strings.TrimSpace(m[group])
}

// amountToken matches a money-shaped run of digits with optional
// grouping/decimal separators and an optional currency sign.
var amountToken = regexp.MustCompile(`\$?\s*\d+(?:[.,]\d+)*`)

// NextAmountAfter finds the first money-shaped token inside the window
// following the label and resolves it with ToNumber. Anchoring to the
// label and bounding the window trades recall for precision: an
// unbounded scan picks up dates and weights elsewhere in the page.
func NextAmountAfter(text, label string, win AmountWindow) (float64, bool) {
	for _, v := range amountsInWindow(text, label, win) {
		return v, true
	}
	return 0, false
}

// LastAmountAfter collects every money-shaped token inside the window
// following the label and returns the largest. In a totals block the
// largest figure is reliably the total rather than a quantity, so this
// survives layouts that interleave kilograms and pesos.
func LastAmountAfter(text, label string, win AmountWindow) (float64, bool) {
	var best float64
	found := false
	for _, v := range amountsInWindow(text, label, win) {
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}

// amountsInWindow parses every plausible money token in the label
// window, in document order.
func amountsInWindow(text, label string, win AmountWindow) []float64 {
	window := windowAfter(text, label, win.Chars)
	if window == "" {
		return nil
	}

	var out []float64
	for _, loc := range amountToken.FindAllStringIndex(window, -1) {
		token := window[loc[0]:loc[1]]
		// Tokens glued to a date separator are date fragments.
		if loc[0] > 0 && window[loc[0]-1] == '/' {
			continue
		}
		if loc[1] < len(window) && window[loc[1]] == '/' {
			continue
		}
		if hasUnitSuffix(window[loc[1]:], win.SkipUnits) {
			continue
		}
		if v, ok := ToNumberIn(strings.TrimPrefix(strings.TrimSpace(token), "$"), win.Locale); ok {
			out = append(out, v)
		}
	}
	return out
}

// digitRun matches identifier-length digit runs. Document and
// reference numbers sit 8–20 digits long and may drift away from
// their label in noisy OCR output.
var digitRun = regexp.MustCompile(`[0-9]{8,20}`)

// NextDigitsAfter finds the first long digit run inside the window
// following the label. Returns "" when the label is absent or no run
// fits.
func NextDigitsAfter(text, label string, windowChars int) string {
	window := windowAfter(text, label, windowChars)
	if window == "" {
		return ""
	}
	for _, loc := range digitRun.FindAllStringIndex(window, -1) {
		// Reject runs that are slices of an even longer number.
		if loc[0] > 0 && isDigit(window[loc[0]-1]) {
			continue
		}
		if loc[1] < len(window) && isDigit(window[loc[1]]) {
			continue
		}
		return window[loc[0]:loc[1]]
	}
	return ""
}

// windowAfter returns the bounded span that follows the first
// case-insensitive match of the label pattern, or "" when the label is
// not found.
func windowAfter(text, label string, chars int) string {
	re, err := regexp.Compile("(?i)" + label)
	if err != nil {
		return ""
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	end := loc[1] + chars
	if chars <= 0 || end > len(text) {
		end = len(text)
	}
	return text[loc[1]:end]
}

// hasUnitSuffix reports whether the text immediately after a numeric
// token names one of the excluded units.
func hasUnitSuffix(rest string, units []string) bool {
	rest = strings.ToLower(strings.TrimLeft(rest, " \t"))
	for _, u := range units {
		if strings.HasPrefix(rest, u) {
			tail := rest[len(u):]
			if tail == "" || !isLetter(tail[0]) {
				return true
			}
		}
	}
	return false
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isLetter(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
