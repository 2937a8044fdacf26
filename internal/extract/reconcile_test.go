package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func reconcile(e, v string) DatePair {
	return ReconcileOCRDates(e, v, ReconcileOptions{ReferenceYear: refYear})
}

func TestReconcilePlausiblePairUntouched(t *testing.T) {
	got := reconcile("01/03/2026", "30/04/2026")
	assert.Equal(t, DatePair{Emision: "2026-03-01", Venc: "2026-04-30"}, got)

	// Same stale year but no in-band upgrade exists: the base gap is
	// plausible, keep the pair.
	got = reconcile("01/03/2024", "30/04/2024")
	assert.Equal(t, DatePair{Emision: "2024-03-01", Venc: "2024-04-30"}, got)
}

func TestReconcileStaleYearUpgrade(t *testing.T) {
	// Both years read 2020 while the reference is 2026: the shared
	// 0-for-5 misread is upgraded on both sides at once.
	got := reconcile("05/03/2020", "20/04/2020")
	assert.Equal(t, DatePair{Emision: "2025-03-05", Venc: "2025-04-20"}, got)
}

func TestReconcileDueYearRepair(t *testing.T) {
	// Due year 2020 is a misread of 2025; the repair lands a 10-day
	// gap and beats repainting both dates into the past.
	got := reconcile("10/03/2025", "20/03/2020")
	assert.Equal(t, DatePair{Emision: "2025-03-10", Venc: "2025-03-20"}, got)
}

func TestReconcileEmissionYearRepair(t *testing.T) {
	got := reconcile("10/03/2020", "20/03/2025")
	assert.Equal(t, DatePair{Emision: "2025-03-10", Venc: "2025-03-20"}, got)
}

func TestReconcileBiasYearTieBreak(t *testing.T) {
	// With a caller-supplied bias toward 2020, the cost tie resolves
	// to the pair that stays in the biased period.
	got := ReconcileOCRDates("10/03/2025", "20/03/2020", ReconcileOptions{
		ReferenceYear: refYear,
		BiasYear:      2020,
	})
	assert.Equal(t, DatePair{Emision: "2020-03-10", Venc: "2020-03-20"}, got)
}

func TestReconcileSingleDate(t *testing.T) {
	got := reconcile("", "15/03/2024")
	assert.Equal(t, DatePair{Emision: "", Venc: "2024-03-15"}, got)

	got = reconcile("sin fecha", "")
	assert.Equal(t, DatePair{}, got)
}

func TestReconcileIrreparableKeepsOriginal(t *testing.T) {
	// No 0↔5 substitution lands in the plausible band, so the
	// original (implausible) pair passes through for human review.
	got := reconcile("01/01/2024", "01/06/2023")
	assert.Equal(t, DatePair{Emision: "2024-01-01", Venc: "2023-06-01"}, got)
}

func TestReconcileDeterministic(t *testing.T) {
	first := reconcile("10/03/2025", "20/03/2020")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, reconcile("10/03/2025", "20/03/2020"))
	}
}
