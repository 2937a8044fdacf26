package extract

import "time"

// DefaultTaxRate is the IVA rate applied when a total must be derived
// and no tax amount was read (21% general rate).
const DefaultTaxRate = 0.21

// Options are the bias hints for one extraction pass. The zero value
// is usable: wall-clock reference year, default window calibration,
// Latin-American locale, 21% tax rate, no known COE.
type Options struct {
	// ReferenceYear anchors every date plausibility heuristic. Zero
	// means the current year at the call site.
	ReferenceYear int
	// BiasYear optionally pulls date repairs toward a known fiscal
	// period.
	BiasYear int
	// KnownCOE is a previously identified reference code to exclude
	// from document-number candidate sets.
	KnownCOE string
	// Window overrides the amount-search calibration.
	Window AmountWindow
	// TaxRate overrides DefaultTaxRate; zero means the default.
	TaxRate float64
	// Locale overrides numeric separator resolution.
	Locale Locale
}

func (o Options) normalized() Options {
	if o.ReferenceYear == 0 {
		o.ReferenceYear = time.Now().Year()
	}
	if o.Window.Chars == 0 {
		o.Window = DefaultAmountWindow
	}
	o.Window.Locale = o.Locale
	if o.TaxRate == 0 {
		o.TaxRate = DefaultTaxRate
	}
	return o
}

// noUnits returns the window with unit exclusion disabled, for fields
// where the quantity itself is the target.
func (o Options) noUnits() AmountWindow {
	return AmountWindow{Chars: o.Window.Chars, Locale: o.Locale}
}

func numPtr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
