package rollup

import (
	"fmt"
	"strconv"

	"github.com/hedgedesk/hedgebook/internal/model"
)

// Mismatch is one numeric field that differs between a locally built
// header and a remote one.
type Mismatch struct {
	Field  string `json:"field"`
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: local=%s remote=%s", m.Field, m.Local, m.Remote)
}

// Compare checks two headers for exact equality of every numeric field and
// of the grouping keys. Floats are compared bit for bit.
func Compare(local, remote model.RollupHeader) []Mismatch {
	var out []Mismatch
	f := func(field string, l, r float64) {
		if l != r {
			out = append(out, Mismatch{Field: field, Local: fmtFloat(l), Remote: fmtFloat(r)})
		}
	}
	n := func(field string, l, r int) {
		if l != r {
			out = append(out, Mismatch{Field: field, Local: strconv.Itoa(l), Remote: strconv.Itoa(r)})
		}
	}
	opt := func(field string, l, r *float64) {
		switch {
		case l == nil && r == nil:
		case l == nil || r == nil:
			out = append(out, Mismatch{Field: field, Local: fmtOptional(l), Remote: fmtOptional(r)})
		default:
			f(field, *l, *r)
		}
	}
	metrics := func(prefix string, l, r model.GroupedMetrics) {
		f(prefix+".mv_ssc_usd", l.MVUSD, r.MVUSD)
		f(prefix+".pnl_1d_usd", l.PnL1DUSD, r.PnL1DUSD)
		f(prefix+".pnl_mtd_usd", l.PnLMTDUSD, r.PnLMTDUSD)
		n(prefix+".position_count", l.PositionCount, r.PositionCount)
	}

	lt, rt := local.Totals, remote.Totals
	f("totals.total_mv_ssc_usd", lt.TotalMVUSD, rt.TotalMVUSD)
	f("totals.total_dv01_usd", lt.TotalDV01USD, rt.TotalDV01USD)
	f("totals.total_cs01_usd", lt.TotalCS01USD, rt.TotalCS01USD)
	f("totals.total_pnl_1d_usd", lt.TotalPnL1DUSD, rt.TotalPnL1DUSD)
	f("totals.total_pnl_mtd_usd", lt.TotalPnLMTDUSD, rt.TotalPnLMTDUSD)
	f("totals.total_long_mv", lt.TotalLongMV, rt.TotalLongMV)
	f("totals.total_short_mv", lt.TotalShortMV, rt.TotalShortMV)
	n("totals.row_count", lt.RowCount, rt.RowCount)
	opt("totals.total_beta_spx", lt.TotalBetaSPX, rt.TotalBetaSPX)
	opt("totals.total_delta_spx", lt.TotalDeltaSPX, rt.TotalDeltaSPX)
	opt("totals.total_vega_spx", lt.TotalVegaSPX, rt.TotalVegaSPX)

	n("by_family.len", len(local.ByFamily), len(remote.ByFamily))
	for i := 0; i < min(len(local.ByFamily), len(remote.ByFamily)); i++ {
		l, r := local.ByFamily[i], remote.ByFamily[i]
		prefix := fmt.Sprintf("by_family[%d]", i)
		if l.HedgeFamily != r.HedgeFamily {
			out = append(out, Mismatch{Field: prefix + ".hedge_family", Local: l.HedgeFamily, Remote: r.HedgeFamily})
			continue
		}
		metrics(prefix, l.GroupedMetrics, r.GroupedMetrics)
	}

	n("by_strategy.len", len(local.ByStrategy), len(remote.ByStrategy))
	for i := 0; i < min(len(local.ByStrategy), len(remote.ByStrategy)); i++ {
		l, r := local.ByStrategy[i], remote.ByStrategy[i]
		prefix := fmt.Sprintf("by_strategy[%d]", i)
		if l.Strategy != r.Strategy {
			out = append(out, Mismatch{Field: prefix + ".strategy", Local: l.Strategy, Remote: r.Strategy})
			continue
		}
		metrics(prefix, l.GroupedMetrics, r.GroupedMetrics)
	}

	n("by_family_and_strategy.len", len(local.ByFamilyAndStrategy), len(remote.ByFamilyAndStrategy))
	for i := 0; i < min(len(local.ByFamilyAndStrategy), len(remote.ByFamilyAndStrategy)); i++ {
		l, r := local.ByFamilyAndStrategy[i], remote.ByFamilyAndStrategy[i]
		prefix := fmt.Sprintf("by_family_and_strategy[%d]", i)
		if l.HedgeFamily != r.HedgeFamily || l.Strategy != r.Strategy {
			out = append(out, Mismatch{
				Field:  prefix + ".key",
				Local:  l.HedgeFamily + "/" + l.Strategy,
				Remote: r.HedgeFamily + "/" + r.Strategy,
			})
			continue
		}
		metrics(prefix, l.GroupedMetrics, r.GroupedMetrics)
	}
	return out
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func fmtOptional(v *float64) string {
	if v == nil {
		return "null"
	}
	return fmtFloat(*v)
}
