package extract

import (
	"time"
)

// DatePair is the outcome of reconciling the emission/due dates of one
// document. Either side may be zero when its source token was
// unreadable.
type DatePair struct {
	Emision ISODate `json:"emision"`
	Venc    ISODate `json:"venc"`
}

// ReconcileOptions parameterizes date reconciliation. The zero value
// uses the wall-clock year and no bias.
type ReconcileOptions struct {
	// ReferenceYear anchors plausibility scoring. Zero means the
	// current year at the call site.
	ReferenceYear int
	// BiasYear, when set, pulls repaired years toward a period the
	// caller already knows (e.g. the fiscal period being loaded).
	// It only affects tie-breaking between repair candidates.
	BiasYear int
}

// maxPlausibleGapDays bounds the emission→due spread considered normal
// for a single document.
const maxPlausibleGapDays = 180

// ReconcileOCRDates resolves the year ambiguity OCR digit confusion
// introduces between the emission and due dates of one document.
// Emission and due dates are usually 0–180 days apart; a 0↔5 misread
// in a year digit silently produces a negative or multi-year gap.
//
// The resolution chain, in order:
//
//  1. Normalize both tokens independently. With only one readable
//     date there is nothing to reconcile.
//  2. Both dates in the same stale year (≤ reference−2): try the 0→5
//     year upgrade on both at once and accept it if the gap lands in
//     [0, 180].
//  3. Accept the pair as-is when its gap is already in [0, 180].
//  4. Generate repair candidates by flipping one 0↔5 year digit in
//     the emission, the due date, or both; prefer candidates with a
//     gap in [0, 180], then any non-negative gap, tie-broken by
//     smallest gap then lowest year-distance cost.
//  5. Fall back to the original, unreconciled pair.
//
// The result is deterministic for identical inputs and never contains
// a date that is not derivable from the inputs by year-digit
// substitution.
func ReconcileOCRDates(rawEmision, rawVenc string, opts ReconcileOptions) DatePair {
	ref := opts.ReferenceYear
	if ref == 0 {
		ref = time.Now().Year()
	}

	emision := ToISODateAt(rawEmision, ref)
	venc := ToISODateAt(rawVenc, ref)
	pair := DatePair{Emision: emision, Venc: venc}
	if emision.IsZero() || venc.IsZero() {
		return pair
	}

	// Shared stale year is the strongest signal of a 0-for-5 misread:
	// both year digits were corrupted the same way.
	if emision.Year() == venc.Year() && emision.Year() <= ref-2 {
		if up, ok := upgradeYear(emision.Year(), ref); ok {
			e2, okE := withYear(emision, up)
			v2, okV := withYear(venc, up)
			if okE && okV {
				if gap, ok := gapDays(e2, v2); ok && gap >= 0 && gap <= maxPlausibleGapDays {
					return DatePair{Emision: e2, Venc: v2}
				}
			}
		}
	}

	baseGap, ok := gapDays(emision, venc)
	if ok && baseGap >= 0 && baseGap <= maxPlausibleGapDays {
		return pair
	}

	if best, ok := bestRepair(emision, venc, ref, opts.BiasYear); ok {
		return best
	}
	return pair
}

type repairCandidate struct {
	pair DatePair
	gap  int
	cost int
}

// bestRepair evaluates the three repair families (emission only, due
// only, both) and picks the most plausible candidate. Repaired years
// outside the plausible band [2018, ref+2] are discarded outright: a
// 0↔5 flip must never push a document into a century it cannot
// belong to.
func bestRepair(emision, venc ISODate, ref, bias int) (DatePair, bool) {
	inBand := func(year int) bool { return year >= 2018 && year <= ref+2 }
	var candidates []repairCandidate
	add := func(e, v ISODate) {
		gap, ok := gapDays(e, v)
		if !ok {
			return
		}
		candidates = append(candidates, repairCandidate{
			pair: DatePair{Emision: e, Venc: v},
			gap:  gap,
			cost: yearCost(e.Year(), ref, bias) + yearCost(v.Year(), ref, bias),
		})
	}

	for _, ye := range yearVariants(emision.Year()) {
		if !inBand(ye) {
			continue
		}
		if e2, ok := withYear(emision, ye); ok {
			add(e2, venc)
			for _, yv := range yearVariants(venc.Year()) {
				if !inBand(yv) {
					continue
				}
				if v2, ok := withYear(venc, yv); ok {
					add(e2, v2)
				}
			}
		}
	}
	for _, yv := range yearVariants(venc.Year()) {
		if !inBand(yv) {
			continue
		}
		if v2, ok := withYear(venc, yv); ok {
			add(emision, v2)
		}
	}

	if best, ok := pickCandidate(candidates, func(c repairCandidate) bool {
		return c.gap >= 0 && c.gap <= maxPlausibleGapDays
	}); ok {
		return best.pair, true
	}
	if best, ok := pickCandidate(candidates, func(c repairCandidate) bool {
		return c.gap >= 0
	}); ok {
		return best.pair, true
	}
	return DatePair{}, false
}

// pickCandidate selects the eligible candidate with the smallest gap,
// breaking ties by lowest cost, then by generation order.
func pickCandidate(candidates []repairCandidate, eligible func(repairCandidate) bool) (repairCandidate, bool) {
	var best repairCandidate
	found := false
	for _, c := range candidates {
		if !eligible(c) {
			continue
		}
		if !found || c.gap < best.gap || (c.gap == best.gap && c.cost < best.cost) {
			best, found = c, true
		}
	}
	return best, found
}

// upgradeYear finds the single 0→5 flip that moves a stale year
// forward without leaving the plausible band, preferring the variant
// closest to the reference year. A flip that lands past ref+2 or gets
// no closer to ref than the original is not an upgrade.
func upgradeYear(year, ref int) (int, bool) {
	best, bestDist := 0, -1
	for _, v := range yearVariants(year) {
		if v <= year || v > ref+2 || abs(v-ref) >= abs(year-ref) {
			continue
		}
		d := abs(v - ref)
		if bestDist < 0 || d < bestDist {
			best, bestDist = v, d
		}
	}
	return best, bestDist >= 0
}

// yearCost scores the plausibility of a repaired year: distance from
// the reference year, optionally weighted toward a caller-supplied
// bias year.
func yearCost(year, ref, bias int) int {
	cost := abs(year - ref)
	if bias != 0 {
		cost += abs(year - bias)
	}
	return cost
}

// withYear rebuilds a date with a substituted year, validating that
// the day still exists in that year (Feb 29 does not survive every
// substitution).
func withYear(d ISODate, year int) (ISODate, bool) {
	t, ok := d.Time()
	if !ok {
		return "", false
	}
	return calendarDate(year, int(t.Month()), t.Day())
}

// gapDays returns venc−emision in whole days.
func gapDays(emision, venc ISODate) (int, bool) {
	e, okE := emision.Time()
	v, okV := venc.Time()
	if !okE || !okV {
		return 0, false
	}
	return int(v.Sub(e).Hours() / 24), true
}
