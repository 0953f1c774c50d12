// Package aggregate folds position rows into the breakdowns shown next to
// the hedge table: the expiry ladder, the asset-type mix and the
// package-level view of spread legs.
//
// Every function allocates fresh output and never mutates its input, so the
// same rows can be aggregated concurrently and repeatedly with identical
// results.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/hedgedesk/hedgebook/internal/classify"
	"github.com/hedgedesk/hedgebook/internal/model"
)

// FallbackColor is used for any category missing from the color table.
const FallbackColor = "#9ca3af"

var categoryColors = map[string]string{
	classify.CategoryIG:          "#3b82f6",
	classify.CategoryHY:          "#ef4444",
	classify.CategorySPY:         "#10b981",
	classify.CategoryCreditOther: "#f59e0b",
	classify.CategoryEquityOther: "#8b5cf6",
	classify.CategoryOther:       "#6b7280",
}

// ColorFor returns the fixed display color of an asset-type category.
func ColorFor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return FallbackColor
}

// ByExpiryBucket sums signed market value and counts rows per expiry
// bucket. All four buckets are always returned in display order. Rows with
// no market value, or an expiry that is missing, unparsable or already
// past, are left out of both sum and count.
func ByExpiryBucket(rows []model.Position, today time.Time) []model.ExpiryExposure {
	buckets := classify.Buckets()
	out := make([]model.ExpiryExposure, len(buckets))
	index := make(map[classify.Bucket]int, len(buckets))
	for i, b := range buckets {
		out[i] = model.ExpiryExposure{Bucket: b.String(), DisplayOrder: b.DisplayOrder()}
		index[b] = i
	}

	for _, p := range rows {
		if p.MVUSD == nil {
			continue
		}
		b, ok := classify.Expiry(p.Expiry, today)
		if !ok {
			continue
		}
		e := &out[index[b]]
		e.MarketValue += *p.MVUSD
		e.Count++
	}
	return out
}

// ByAssetType sums gross (absolute) market value per asset-type category
// and reports each category's share of the gross total. Output is sorted by
// market value descending, ties broken by category label.
func ByAssetType(rows []model.Position) []model.AssetTypeExposure {
	sums := make(map[string]float64)
	var order []string
	for _, p := range rows {
		if p.MVUSD == nil {
			continue
		}
		cat := classify.AssetType(p)
		if _, seen := sums[cat]; !seen {
			order = append(order, cat)
		}
		sums[cat] += math.Abs(*p.MVUSD)
	}

	sort.Strings(order)
	var total float64
	for _, cat := range order {
		total += sums[cat]
	}

	out := make([]model.AssetTypeExposure, 0, len(order))
	for _, cat := range order {
		pct := 0.0
		if total != 0 {
			pct = sums[cat] / total * 100
		}
		out = append(out, model.AssetTypeExposure{
			AssetType:   cat,
			MarketValue: sums[cat],
			Percentage:  pct,
			Color:       ColorFor(cat),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MarketValue > out[j].MarketValue
	})
	return out
}
