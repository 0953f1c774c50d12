// Package filter narrows the hedge table before it is aggregated for
// display.
package filter

import (
	"sort"
	"strings"

	"github.com/hedgedesk/hedgebook/internal/model"
)

// Criteria holds the active filters. An empty field places no constraint.
type Criteria struct {
	Family   string `json:"family"`
	Strategy string `json:"strategy"`
	Query    string `json:"q"`
}

// IsZero reports whether no filter is set.
func (c Criteria) IsZero() bool {
	return c.Family == "" && c.Strategy == "" && c.Query == ""
}

// Admit reports whether p passes every filter. Family and strategy must
// match exactly; the query is a case-insensitive substring of the
// description, hedge label or investment id.
func (c Criteria) Admit(p model.Position) bool {
	if c.Family != "" && (p.HedgeFamily == nil || *p.HedgeFamily != c.Family) {
		return false
	}
	if c.Strategy != "" && (p.Strategy == nil || *p.Strategy != c.Strategy) {
		return false
	}
	if c.Query == "" {
		return true
	}
	q := strings.ToLower(c.Query)
	for _, field := range []*string{p.InvestmentDescription, p.HedgeLabel, p.InvestmentID} {
		if field != nil && strings.Contains(strings.ToLower(*field), q) {
			return true
		}
	}
	return false
}

// Apply returns the admitted rows in their original order.
func Apply(rows []model.Position, c Criteria) []model.Position {
	out := make([]model.Position, 0, len(rows))
	for _, p := range rows {
		if c.Admit(p) {
			out = append(out, p)
		}
	}
	return out
}

// Options are the distinct values offered by the filter dropdowns.
type Options struct {
	Families   []string `json:"families"`
	Strategies []string `json:"strategies"`
}

// OptionsFor lists the distinct non-null families and strategies, sorted.
// Pass the unfiltered rows so the lists do not shrink as filters apply.
func OptionsFor(rows []model.Position) Options {
	families := make(map[string]struct{})
	strategies := make(map[string]struct{})
	for _, p := range rows {
		if p.HedgeFamily != nil {
			families[*p.HedgeFamily] = struct{}{}
		}
		if p.Strategy != nil {
			strategies[*p.Strategy] = struct{}{}
		}
	}
	return Options{Families: sortedKeys(families), Strategies: sortedKeys(strategies)}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
