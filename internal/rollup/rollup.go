// Package rollup builds the summary header of the hedge book: grand totals
// plus subtotals by hedge family, by strategy and by both.
//
// The header must match the one served by the upstream system of record
// field for field, so totals use pairwise summation, grouped views use
// compensated sums in row order, and grouped views are sorted by key.
package rollup

import (
	"sort"

	"github.com/hedgedesk/hedgebook/internal/model"
)

// Build computes the rollup header over rows. Absent numeric fields
// contribute nothing to their own sum but the row still counts. A row
// missing a grouping key is left out of that grouped view only.
func Build(rows []model.Position) model.RollupHeader {
	return model.RollupHeader{
		Totals:              Totals(rows),
		ByFamily:            ByFamily(rows),
		ByStrategy:          ByStrategy(rows),
		ByFamilyAndStrategy: ByFamilyAndStrategy(rows),
	}
}

// Totals sums every headline metric across rows. Absent values are summed
// as zero; a greek total stays nil unless some row defines it.
func Totals(rows []model.Position) model.Totals {
	column := func(get func(model.Position) *float64) ([]float64, bool) {
		xs := make([]float64, len(rows))
		defined := false
		for i, p := range rows {
			if v := get(p); v != nil {
				xs[i] = *v
				defined = true
			}
		}
		return xs, defined
	}
	total := func(get func(model.Position) *float64) float64 {
		xs, _ := column(get)
		return pairwiseSum(xs)
	}
	optional := func(get func(model.Position) *float64) *float64 {
		xs, defined := column(get)
		if !defined {
			return nil
		}
		sum := pairwiseSum(xs)
		return &sum
	}

	return model.Totals{
		TotalMVUSD:     total(func(p model.Position) *float64 { return p.MVUSD }),
		TotalDV01USD:   total(func(p model.Position) *float64 { return p.DV01USD }),
		TotalCS01USD:   total(func(p model.Position) *float64 { return p.CS01USD }),
		TotalPnL1DUSD:  total(func(p model.Position) *float64 { return p.PnL1DUSD }),
		TotalPnLMTDUSD: total(func(p model.Position) *float64 { return p.PnLMTDUSD }),
		TotalLongMV:    total(func(p model.Position) *float64 { return p.LongMV }),
		TotalShortMV:   total(func(p model.Position) *float64 { return p.ShortMV }),
		RowCount:       len(rows),

		TotalBetaSPX:  optional(func(p model.Position) *float64 { return p.BetaSPX }),
		TotalDeltaSPX: optional(func(p model.Position) *float64 { return p.DeltaSPX }),
		TotalVegaSPX:  optional(func(p model.Position) *float64 { return p.VegaSPX }),
	}
}

// ByFamily groups rows by hedge family, sorted by family.
func ByFamily(rows []model.Position) []model.FamilyBucket {
	groups := group(rows, func(p model.Position) (groupKey, bool) {
		if p.HedgeFamily == nil {
			return groupKey{}, false
		}
		return groupKey{family: *p.HedgeFamily}, true
	})
	out := make([]model.FamilyBucket, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.FamilyBucket{HedgeFamily: g.key.family, GroupedMetrics: g.metrics})
	}
	return out
}

// ByStrategy groups rows by strategy, sorted by strategy.
func ByStrategy(rows []model.Position) []model.StrategyBucket {
	groups := group(rows, func(p model.Position) (groupKey, bool) {
		if p.Strategy == nil {
			return groupKey{}, false
		}
		return groupKey{strategy: *p.Strategy}, true
	})
	out := make([]model.StrategyBucket, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.StrategyBucket{Strategy: g.key.strategy, GroupedMetrics: g.metrics})
	}
	return out
}

// ByFamilyAndStrategy groups rows by (family, strategy), sorted by family
// then strategy.
func ByFamilyAndStrategy(rows []model.Position) []model.FamilyStrategyBucket {
	groups := group(rows, func(p model.Position) (groupKey, bool) {
		if p.HedgeFamily == nil || p.Strategy == nil {
			return groupKey{}, false
		}
		return groupKey{family: *p.HedgeFamily, strategy: *p.Strategy}, true
	})
	out := make([]model.FamilyStrategyBucket, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.FamilyStrategyBucket{
			HedgeFamily:    g.key.family,
			Strategy:       g.key.strategy,
			GroupedMetrics: g.metrics,
		})
	}
	return out
}

type groupKey struct {
	family   string
	strategy string
}

type groupResult struct {
	key     groupKey
	metrics model.GroupedMetrics
}

// group folds rows into per-key metrics and returns them sorted by key.
func group(rows []model.Position, keyOf func(model.Position) (groupKey, bool)) []groupResult {
	type acc struct {
		mv, pnl1d, pnlMTD kahan
		count             int
	}
	agg := make(map[groupKey]*acc)
	for _, p := range rows {
		k, ok := keyOf(p)
		if !ok {
			continue
		}
		a, exists := agg[k]
		if !exists {
			a = &acc{}
			agg[k] = a
		}
		a.mv.add(val(p.MVUSD))
		a.pnl1d.add(val(p.PnL1DUSD))
		a.pnlMTD.add(val(p.PnLMTDUSD))
		a.count++
	}

	out := make([]groupResult, 0, len(agg))
	for k, a := range agg {
		out = append(out, groupResult{key: k, metrics: model.GroupedMetrics{
			MVUSD:         a.mv.sum,
			PnL1DUSD:      a.pnl1d.sum,
			PnLMTDUSD:     a.pnlMTD.sum,
			PositionCount: a.count,
		}})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].key.family != out[j].key.family {
			return out[i].key.family < out[j].key.family
		}
		return out[i].key.strategy < out[j].key.strategy
	})
	return out
}

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
