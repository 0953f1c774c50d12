package classify

import (
	"testing"
	"time"

	"github.com/hedgedesk/hedgebook/internal/model"
)

var today = time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)

func daysOut(n int) *string {
	s := today.AddDate(0, 0, n).Format("2006-01-02")
	return &s
}

// --- Expiry tests ---

func TestExpiry_Boundaries(t *testing.T) {
	tests := []struct {
		days int
		want Bucket
	}{
		{0, Bucket0To3M},
		{1, Bucket0To3M},
		{90, Bucket0To3M},
		{91, Bucket3To6M},
		{95, Bucket3To6M},
		{180, Bucket3To6M},
		{181, Bucket6To12M},
		{365, Bucket6To12M},
		{366, Bucket12MPlus},
		{3650, Bucket12MPlus},
	}
	for _, tt := range tests {
		got, ok := Expiry(daysOut(tt.days), today)
		if !ok {
			t.Errorf("%d days: expected a bucket, got none", tt.days)
			continue
		}
		if got != tt.want {
			t.Errorf("%d days: expected %s, got %s", tt.days, tt.want, got)
		}
	}
}

func TestExpiry_PastIsExcluded(t *testing.T) {
	for _, days := range []int{-1, -5, -400} {
		if b, ok := Expiry(daysOut(days), today); ok {
			t.Errorf("%d days: expired position should be unclassified, got %s", days, b)
		}
	}
}

func TestExpiry_MissingOrMalformed(t *testing.T) {
	if _, ok := Expiry(nil, today); ok {
		t.Error("nil expiry should be unclassified")
	}
	for _, s := range []string{"", "   ", "soon", "2025-13-45", "31/31/2025"} {
		s := s
		if b, ok := Expiry(&s, today); ok {
			t.Errorf("expiry %q should be unclassified, got %s", s, b)
		}
	}
}

func TestExpiry_AlternateLayouts(t *testing.T) {
	inputs := []string{
		"2025-03-01",
		"2025-03-01T16:00:00Z",
		"2025-03-01 16:00:00",
		"03/01/2025",
		"3/1/2025",
		"20250301",
	}
	for _, s := range inputs {
		s := s
		b, ok := Expiry(&s, today)
		if !ok || b != Bucket0To3M {
			t.Errorf("expiry %q: expected 0-3M, got %s (ok=%v)", s, b, ok)
		}
	}
}

func TestExpiry_TimeOfDayIgnored(t *testing.T) {
	// Late on the reference day, an expiry 90 calendar days out is still 0-3M.
	late := time.Date(2025, 1, 15, 23, 59, 59, 0, time.UTC)
	b, ok := Expiry(daysOut(90), late)
	if !ok || b != Bucket0To3M {
		t.Errorf("expected 0-3M, got %s (ok=%v)", b, ok)
	}
}

func TestBuckets_DisplayOrder(t *testing.T) {
	want := []string{"0-3M", "3-6M", "6-12M", "12M+"}
	for i, b := range Buckets() {
		if b.String() != want[i] {
			t.Errorf("bucket %d: expected %s, got %s", i, want[i], b)
		}
		if b.DisplayOrder() != i+1 {
			t.Errorf("bucket %s: expected order %d, got %d", b, i+1, b.DisplayOrder())
		}
	}
}

// --- Asset type tests ---

func pos(symbol, underlying string) model.Position {
	var p model.Position
	if symbol != "" {
		p.UnderlyingSymbol = model.Str(symbol)
	}
	if underlying != "" {
		p.UnderlyingType = model.Str(underlying)
	}
	return p
}

func TestAssetType_RuleChain(t *testing.T) {
	tests := []struct {
		name       string
		symbol     string
		underlying string
		want       string
	}{
		{"cdx ig dotted", "CDX.IG 5Y", "Credit", CategoryIG},
		{"cdx ig spaced", "cdx ig 43", "", CategoryIG},
		{"cdx hy", "CDX HY 41", "Credit", CategoryHY},
		{"hyg etf", "HYG US", "Equity", CategoryHY},
		{"spy", "SPY 450P", "Equity", CategorySPY},
		{"spx", "spx index", "", CategorySPY},
		{"s&p", "S&P 500 Put", "Equity", CategorySPY},
		{"credit ig substring", "ITRAXX IG", "credit", CategoryIG},
		{"credit hy substring", "ITRAXX XOVER HY", "CREDIT", CategoryHY},
		{"credit other", "ITRAXX MAIN", "Credit", CategoryCreditOther},
		{"equity other", "QQQ", "Equity", CategoryEquityOther},
		{"rates", "USD 5Y SWAPTION", "Rates", CategoryOther},
		{"nothing", "", "", CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssetType(pos(tt.symbol, tt.underlying))
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAssetType_OrderBreaksTies(t *testing.T) {
	// Both an IG marker and an equity marker: the IG rule runs first.
	if got := AssetType(pos("CDX.IG vs SPX", "Equity")); got != CategoryIG {
		t.Errorf("expected IG to win, got %s", got)
	}
	// HY before SPY.
	if got := AssetType(pos("HYG/SPY RV", "")); got != CategoryHY {
		t.Errorf("expected HY to win, got %s", got)
	}
}
