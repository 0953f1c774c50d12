package aggregate

import (
	"sort"

	"github.com/hedgedesk/hedgebook/internal/model"
)

// ConsolidateSpreads sums market value and PnL across the legs of each
// package. Only rows with a spread id that are flagged as legs take part.
// When legs disagree on the package name, the first non-empty name in row
// order wins. The result is rebuilt from scratch on every call.
func ConsolidateSpreads(rows []model.Position) map[string]model.SpreadAggregate {
	out := make(map[string]model.SpreadAggregate)
	for _, p := range rows {
		if p.SpreadID == nil || !p.IsSpreadLeg {
			continue
		}
		id := *p.SpreadID
		agg, ok := out[id]
		if !ok {
			agg = model.SpreadAggregate{SpreadID: id}
		}
		if agg.SpreadName == "" && p.SpreadName != nil {
			agg.SpreadName = *p.SpreadName
		}
		if p.MVUSD != nil {
			agg.MVTotal += *p.MVUSD
		}
		if p.PnL1DUSD != nil {
			agg.PnL1DTotal += *p.PnL1DUSD
		}
		if p.PnLMTDUSD != nil {
			agg.PnLMTDTotal += *p.PnLMTDUSD
		}
		agg.LegCount++
		out[id] = agg
	}
	return out
}

// SortedSpreads flattens the consolidation map ordered by spread id.
func SortedSpreads(spreads map[string]model.SpreadAggregate) []model.SpreadAggregate {
	out := make([]model.SpreadAggregate, 0, len(spreads))
	for _, s := range spreads {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpreadID < out[j].SpreadID })
	return out
}

// Legs pairs every spread leg in rows with its package totals, keeping row
// order. Rows that are not legs of a consolidated package are skipped.
func Legs(rows []model.Position, spreads map[string]model.SpreadAggregate) []model.LegView {
	var out []model.LegView
	for _, p := range rows {
		if p.SpreadID == nil || !p.IsSpreadLeg {
			continue
		}
		pkg, ok := spreads[*p.SpreadID]
		if !ok {
			continue
		}
		out = append(out, model.LegView{Position: p, Package: pkg})
	}
	return out
}
