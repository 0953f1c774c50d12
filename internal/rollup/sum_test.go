package rollup

import (
	"math"
	"testing"

	"github.com/hedgedesk/hedgebook/internal/model"
)

func TestPairwiseSum_ShortRunIsSequential(t *testing.T) {
	if got := pairwiseSum([]float64{1e16, 1, 1}); got != 1e16 {
		t.Errorf("expected 1e16, got %v", got)
	}
}

func TestPairwiseSum_BlockUsesPartialSums(t *testing.T) {
	xs := []float64{1e16, 1, 1, 1, 1, 1, 1, 1, 1}

	var sequential float64
	for _, x := range xs {
		sequential += x
	}
	got := pairwiseSum(xs)
	if got != 1.0000000000000008e16 {
		t.Errorf("expected 1.0000000000000008e16, got %v", got)
	}
	if got == sequential {
		t.Errorf("pairwise result should differ from the row-order sum %v", sequential)
	}
}

func TestPairwiseSum_LongRunSplits(t *testing.T) {
	xs := make([]float64, 1000)
	for i := range xs {
		xs[i] = 0.1
	}
	got := pairwiseSum(xs)
	if math.Abs(got-100) > 1e-12 {
		t.Errorf("expected about 100, got %v", got)
	}
	// Halving on multiples of eight: 496 + 504.
	if want := pairwiseSum(xs[:496]) + pairwiseSum(xs[496:]); got != want {
		t.Errorf("expected split sum %v, got %v", want, got)
	}
}

func TestPairwiseSum_ZeroIsPositive(t *testing.T) {
	got := pairwiseSum([]float64{math.Copysign(0, -1)})
	if math.Signbit(got) {
		t.Error("an all-zero column should total +0")
	}
	if got := pairwiseSum(nil); got != 0 || math.Signbit(got) {
		t.Errorf("empty column should total +0, got %v", got)
	}
}

func TestKahan_Compensates(t *testing.T) {
	var k kahan
	for _, v := range []float64{1e16, 1, 1} {
		k.add(v)
	}
	if k.sum != 1.0000000000000002e16 {
		t.Errorf("expected 1.0000000000000002e16, got %v", k.sum)
	}
}

func TestKahan_InfinityStaysInfinite(t *testing.T) {
	var k kahan
	for _, v := range []float64{1, math.Inf(1), 2} {
		k.add(v)
	}
	if !math.IsInf(k.sum, 1) {
		t.Errorf("expected +Inf, got %v", k.sum)
	}
}

func TestBuild_OrderSensitiveSums(t *testing.T) {
	var rows []model.Position
	for _, mv := range []float64{1e16, 1, 1} {
		rows = append(rows, model.Position{HedgeFamily: s("Rates Hedges"), Strategy: s("Payers"), MVUSD: f(mv)})
	}
	h := Build(rows)

	if h.Totals.TotalMVUSD != 1e16 {
		t.Errorf("expected total 1e16, got %v", h.Totals.TotalMVUSD)
	}
	if h.ByFamily[0].MVUSD != 1.0000000000000002e16 {
		t.Errorf("expected family 1.0000000000000002e16, got %v", h.ByFamily[0].MVUSD)
	}
	if h.ByStrategy[0].MVUSD != h.ByFamily[0].MVUSD || h.ByFamilyAndStrategy[0].MVUSD != h.ByFamily[0].MVUSD {
		t.Error("every grouped view should use the same compensated sum")
	}

	remote := h
	remote.ByFamily = []model.FamilyBucket{{HedgeFamily: "Rates Hedges", GroupedMetrics: model.GroupedMetrics{
		MVUSD: 1.0000000000000002e16, PositionCount: 3,
	}}}
	if ms := Compare(h, remote); len(ms) != 0 {
		t.Errorf("expected no mismatch against a compensated remote, got %v", ms)
	}
}
