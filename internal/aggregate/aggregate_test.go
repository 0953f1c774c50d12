package aggregate

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/hedgedesk/hedgebook/internal/classify"
	"github.com/hedgedesk/hedgebook/internal/model"
)

var today = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

func expiryIn(days int) *string {
	return model.Str(today.AddDate(0, 0, days).Format("2006-01-02"))
}

func row(mv *float64, expiry *string) model.Position {
	return model.Position{MVUSD: mv, Expiry: expiry}
}

// --- Expiry ladder ---

func TestByExpiryBucket_AlwaysFourBuckets(t *testing.T) {
	got := ByExpiryBucket(nil, today)
	if len(got) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(got))
	}
	want := []string{"0-3M", "3-6M", "6-12M", "12M+"}
	for i, e := range got {
		if e.Bucket != want[i] || e.DisplayOrder != i+1 {
			t.Errorf("bucket %d: expected %s/%d, got %s/%d", i, want[i], i+1, e.Bucket, e.DisplayOrder)
		}
		if e.MarketValue != 0 || e.Count != 0 {
			t.Errorf("bucket %s should be empty, got mv=%v count=%d", e.Bucket, e.MarketValue, e.Count)
		}
	}
}

func TestByExpiryBucket_SignedSumsAndExclusions(t *testing.T) {
	rows := []model.Position{
		row(model.Float(100), expiryIn(30)),
		row(model.Float(-40), expiryIn(90)),
		row(model.Float(250), expiryIn(95)),
		row(model.Float(70), expiryIn(200)),
		row(model.Float(-10), expiryIn(800)),
		row(model.Float(999), expiryIn(-5)),     // expired
		row(nil, expiryIn(10)),                  // no market value
		row(model.Float(5), nil),                // no expiry
		row(model.Float(5), model.Str("never")), // unparsable
	}

	got := ByExpiryBucket(rows, today)

	want := []model.ExpiryExposure{
		{Bucket: "0-3M", MarketValue: 60, Count: 2, DisplayOrder: 1},
		{Bucket: "3-6M", MarketValue: 250, Count: 1, DisplayOrder: 2},
		{Bucket: "6-12M", MarketValue: 70, Count: 1, DisplayOrder: 3},
		{Bucket: "12M+", MarketValue: -10, Count: 1, DisplayOrder: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	total := 0
	for _, e := range got {
		total += e.Count
	}
	if total != 5 {
		t.Errorf("counts should cover the 5 classifiable rows, got %d", total)
	}
}

// --- Asset type mix ---

func typed(mv float64, symbol, underlying string) model.Position {
	return model.Position{
		MVUSD:            model.Float(mv),
		UnderlyingSymbol: model.Str(symbol),
		UnderlyingType:   model.Str(underlying),
	}
}

func TestByAssetType_GrossSortedWithPercentages(t *testing.T) {
	rows := []model.Position{
		typed(-300, "CDX.IG 5Y", "Credit"),
		typed(100, "CDX IG 43", "Credit"),
		typed(200, "SPY 450P", "Equity"),
		typed(-100, "USD 10Y", "Rates"),
		{UnderlyingSymbol: model.Str("HYG")}, // no market value
	}

	got := ByAssetType(rows)
	if len(got) != 3 {
		t.Fatalf("expected 3 categories, got %d: %+v", len(got), got)
	}

	if got[0].AssetType != classify.CategoryIG || got[0].MarketValue != 400 {
		t.Errorf("expected IG 400 first, got %+v", got[0])
	}
	if got[1].AssetType != classify.CategorySPY || got[1].MarketValue != 200 {
		t.Errorf("expected SPY 200 second, got %+v", got[1])
	}
	if got[2].AssetType != classify.CategoryOther || got[2].MarketValue != 100 {
		t.Errorf("expected Other 100 third, got %+v", got[2])
	}

	var pct float64
	for _, e := range got {
		pct += e.Percentage
		if e.Color != ColorFor(e.AssetType) {
			t.Errorf("category %s: unexpected color %s", e.AssetType, e.Color)
		}
	}
	if math.Abs(pct-100) > 1e-9 {
		t.Errorf("percentages should sum to 100, got %v", pct)
	}
	if math.Abs(got[0].Percentage-(400.0/700.0*100)) > 1e-9 {
		t.Errorf("unexpected IG percentage %v", got[0].Percentage)
	}
}

func TestByAssetType_ZeroTotal(t *testing.T) {
	got := ByAssetType([]model.Position{typed(0, "SPY", "Equity")})
	if len(got) != 1 || got[0].Percentage != 0 {
		t.Errorf("zero gross total should give 0%%, got %+v", got)
	}
	if len(ByAssetType(nil)) != 0 {
		t.Error("no rows should give no categories")
	}
}

func TestByAssetType_TiesAreDeterministic(t *testing.T) {
	rows := []model.Position{
		typed(50, "QQQ", "Equity"),
		typed(50, "ITRAXX MAIN", "Credit"),
	}
	first := ByAssetType(rows)
	for i := 0; i < 10; i++ {
		if !reflect.DeepEqual(first, ByAssetType(rows)) {
			t.Fatal("repeated aggregation should be identical")
		}
	}
	if first[0].AssetType != classify.CategoryCreditOther {
		t.Errorf("equal values should order by label, got %s first", first[0].AssetType)
	}
}

func TestColorFor_Fallback(t *testing.T) {
	if ColorFor("Commodities") != FallbackColor {
		t.Error("unknown category should use the fallback color")
	}
	if ColorFor(classify.CategoryIG) == FallbackColor {
		t.Error("IG should have its own color")
	}
}
