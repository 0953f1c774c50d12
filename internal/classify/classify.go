// Package classify maps a single position to its expiry bucket and its
// asset-type category. Both classifiers are pure: the reference date is an
// argument, never read from the wall clock.
package classify

import (
	"strings"
	"time"

	"github.com/hedgedesk/hedgebook/internal/model"
)

// Bucket is an expiry ladder rung. The zero value is not a valid bucket.
type Bucket int

const (
	Bucket0To3M Bucket = iota + 1
	Bucket3To6M
	Bucket6To12M
	Bucket12MPlus
)

var bucketLabels = map[Bucket]string{
	Bucket0To3M:   "0-3M",
	Bucket3To6M:   "3-6M",
	Bucket6To12M:  "6-12M",
	Bucket12MPlus: "12M+",
}

// Buckets returns every bucket in display order.
func Buckets() []Bucket {
	return []Bucket{Bucket0To3M, Bucket3To6M, Bucket6To12M, Bucket12MPlus}
}

func (b Bucket) String() string { return bucketLabels[b] }

// DisplayOrder is the 1-based position of the bucket on the ladder.
func (b Bucket) DisplayOrder() int { return int(b) }

// Asset-type categories produced by AssetType. The set is open-ended on the
// consumer side; these are the labels the rule chain can emit.
const (
	CategoryIG          = "IG"
	CategoryHY          = "HY"
	CategorySPY         = "SPY"
	CategoryCreditOther = "Credit (Other)"
	CategoryEquityOther = "Equity (Other)"
	CategoryOther       = "Other"
)

// dateLayouts are tried in order when parsing an expiry string.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"20060102",
}

// ParseDate parses a date-like string and returns its calendar date at
// midnight UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// DaysUntil returns the whole-day distance from today to expiry, comparing
// calendar dates only.
func DaysUntil(expiry, today time.Time) int {
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(t).Hours() / 24)
}

// Expiry buckets an expiry date relative to today. It reports false for a
// missing or unparsable date and for positions that have already expired;
// those stay off the ladder entirely. Upper bounds are inclusive.
func Expiry(expiry *string, today time.Time) (Bucket, bool) {
	if expiry == nil {
		return 0, false
	}
	date, ok := ParseDate(*expiry)
	if !ok {
		return 0, false
	}

	days := DaysUntil(date, today)
	switch {
	case days < 0:
		return 0, false
	case days <= 90:
		return Bucket0To3M, true
	case days <= 180:
		return Bucket3To6M, true
	case days <= 365:
		return Bucket6To12M, true
	default:
		return Bucket12MPlus, true
	}
}

// AssetType classifies a position by its underlying symbol and type. The
// rules run in order and the first match wins: a symbol can carry markers
// of more than one category, so the order decides ties.
func AssetType(p model.Position) string {
	symbol := strings.ToUpper(model.Deref(p.UnderlyingSymbol))
	underlying := strings.ToUpper(model.Deref(p.UnderlyingType))

	switch {
	case containsAny(symbol, "CDX IG", "CDX.IG"):
		return CategoryIG
	case containsAny(symbol, "CDX HY", "CDX.HY", "HYG"):
		return CategoryHY
	case containsAny(symbol, "SPY", "SPX", "S&P"):
		return CategorySPY
	case strings.Contains(underlying, "CREDIT"):
		switch {
		case strings.Contains(symbol, "IG"):
			return CategoryIG
		case strings.Contains(symbol, "HY"):
			return CategoryHY
		}
		return CategoryCreditOther
	case strings.Contains(underlying, "EQUITY"):
		return CategoryEquityOther
	}
	return CategoryOther
}

func containsAny(s string, markers ...string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
