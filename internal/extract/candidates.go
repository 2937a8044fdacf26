package extract

import (
	"regexp"
	"strconv"
	"time"
)

// PickContext carries the bias hints available while picking a single
// field from one document. It lives for one extraction pass only.
type PickContext struct {
	// Exclude is the value of an already-identified different field
	// (the COE). A candidate equal to it is disqualified: the two
	// identifiers must not collide.
	Exclude string
	// ReferenceYear anchors the year-prefix plausibility score.
	ReferenceYear int
}

// Candidate is one competing raw match for a field, tagged with the
// strategy that produced it.
type Candidate struct {
	Value    string
	Strategy string
}

// Strategy is a named, pure extraction attempt. Strategies are
// evaluated in declaration order, which makes the precedence chain
// auditable and each step independently testable.
type Strategy struct {
	Name string
	Find func(text string, ctx PickContext) string
}

const (
	comprobanteLabel = `(?:n(?:ro|º|°|o)?\.?\s*(?:de\s*)?comprobante|comprobante\s*(?:n(?:ro|º|°|o)?\.?)?)\s*:?`
	neighborLabel    = `(?:punto\s*de\s*venta|liquidaci[oó]n\s+(?:primaria|secundaria|de\s+granos))`

	comprobanteMinLen = 11
	comprobanteMaxLen = 13
	pickerWindow      = 120
)

// comprobanteStrategies resolves the settlement document number, which
// OCR output frequently interleaves with the adjacent COE. Order
// matters: proximity to the right label is the strongest signal, a
// bare long digit run the weakest.
var comprobanteStrategies = []Strategy{
	{
		Name: "labeled-preferred-length",
		Find: func(text string, ctx PickContext) string {
			v := NextDigitsAfter(text, comprobanteLabel, pickerWindow)
			if len(v) >= comprobanteMinLen && len(v) <= comprobanteMaxLen {
				return v
			}
			return ""
		},
	},
	{
		Name: "labeled",
		Find: func(text string, ctx PickContext) string {
			return NextDigitsAfter(text, comprobanteLabel, pickerWindow)
		},
	},
	{
		Name: "neighbor-anchor",
		Find: func(text string, ctx PickContext) string {
			return NextDigitsAfter(text, neighborLabel, pickerWindow)
		},
	},
	{
		Name: "prefix-scan",
		Find: func(text string, ctx PickContext) string {
			for _, run := range allDigitRuns(text) {
				if run == ctx.Exclude {
					continue
				}
				if len(run) >= comprobanteMinLen && len(run) <= comprobanteMaxLen && plausibleYearPrefix(run, ctx.ReferenceYear) {
					return run
				}
			}
			return ""
		},
	},
	{
		Name: "any-long-run",
		Find: func(text string, ctx PickContext) string {
			best := ""
			for _, run := range allDigitRuns(text) {
				if run == ctx.Exclude || len(run) < 10 {
					continue
				}
				if len(run) > len(best) {
					best = run
				}
			}
			return best
		},
	},
}

// PickComprobante resolves the settlement document number from raw
// text, disqualifying any candidate equal to the already-known COE.
func PickComprobante(text, knownCOE string) string {
	return PickComprobanteAt(text, knownCOE, time.Now().Year())
}

// PickComprobanteAt is PickComprobante with an explicit reference
// year. When every strategy yields either nothing or the COE itself,
// the collision is allowed through rather than fabricating a value.
func PickComprobanteAt(text, knownCOE string, refYear int) string {
	ctx := PickContext{Exclude: knownCOE, ReferenceYear: refYear}
	collided := ""
	for _, s := range comprobanteStrategies {
		v := s.Find(text, ctx)
		if v == "" {
			continue
		}
		if ctx.Exclude != "" && v == ctx.Exclude {
			if collided == "" {
				collided = v
			}
			continue
		}
		return v
	}
	return collided
}

// runCandidates evaluates every strategy and returns the full
// candidate set, for auditing which step produced a value.
func runCandidates(text string, ctx PickContext) []Candidate {
	var out []Candidate
	for _, s := range comprobanteStrategies {
		if v := s.Find(text, ctx); v != "" {
			out = append(out, Candidate{Value: v, Strategy: s.Name})
		}
	}
	return out
}

var anyDigitRun = regexp.MustCompile(`[0-9]{8,20}`)

// allDigitRuns lists the identifier-length digit runs of the whole
// document in order of appearance.
func allDigitRuns(text string) []string {
	var out []string
	for _, loc := range anyDigitRun.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isDigit(text[loc[0]-1]) {
			continue
		}
		if loc[1] < len(text) && isDigit(text[loc[1]]) {
			continue
		}
		out = append(out, text[loc[0]:loc[1]])
	}
	return out
}

// plausibleYearPrefix reports whether the run opens with a four-digit
// year near the reference year, the prefix shape settlement numbers
// carry in the calibrated layouts.
func plausibleYearPrefix(run string, refYear int) bool {
	if len(run) < 4 {
		return false
	}
	y, err := strconv.Atoi(run[:4])
	if err != nil {
		return false
	}
	return y >= refYear-8 && y <= refYear+1
}
