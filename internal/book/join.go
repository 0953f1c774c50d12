package book

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hedgedesk/hedgebook/internal/model"
)

const (
	// SourceMatchManualOnly marks a manual trade with no matching source row.
	SourceMatchManualOnly = "manual_only"
	// SourceMatchManualEnriched marks a source row overlaid by a manual trade.
	SourceMatchManualEnriched = "manual+source"

	labelMaxLen  = 50
	unknownLabel = "Unknown"
)

// Classification maps strategies to hedge families.
type Classification struct {
	StrategyToFamily map[string]string
	DefaultFamily    string
}

// Join overlays manual trades on the source rows and classifies the result.
// A manual trade whose investment id matches a source row enriches that row;
// the remaining trades become standalone rows appended in store order. Every
// row is stamped with loadedAt. The source slice is not modified.
func Join(rows []model.Position, trades []model.ManualTrade, cls Classification, loadedAt time.Time) []model.Position {
	byInvestment := make(map[string]int, len(trades))
	for i, t := range trades {
		if t.InvestmentID == "" {
			continue
		}
		if _, ok := byInvestment[t.InvestmentID]; !ok {
			byInvestment[t.InvestmentID] = i
		}
	}

	matched := make(map[string]bool)
	out := make([]model.Position, 0, len(rows)+len(trades))
	for _, p := range rows {
		if p.InvestmentID != nil {
			if i, ok := byInvestment[*p.InvestmentID]; ok {
				overlay(&p, trades[i])
				p.SourceMatch = model.Str(SourceMatchManualEnriched)
				matched[*p.InvestmentID] = true
			}
		}
		out = append(out, p)
	}

	for _, t := range trades {
		if t.InvestmentID != "" && matched[t.InvestmentID] {
			continue
		}
		out = append(out, standalone(t))
	}

	ts := loadedAt
	for i := range out {
		classify(&out[i], cls)
		out[i].DataFreshness = &ts
	}
	return out
}

// PortfolioTotalMV sums long and short MV over the rows of portfolio, or
// over every row when portfolio is empty.
func PortfolioTotalMV(rows []model.Position, portfolio string) float64 {
	var total float64
	for _, p := range rows {
		if portfolio != "" && model.Deref(p.Portfolio) != portfolio {
			continue
		}
		if p.LongMV != nil {
			total += *p.LongMV
		}
		if p.ShortMV != nil {
			total += *p.ShortMV
		}
	}
	return total
}

func standalone(t model.ManualTrade) model.Position {
	var p model.Position
	if t.InvestmentID != "" {
		p.InvestmentID = model.Str(t.InvestmentID)
	}
	p.InvestmentDescription = model.Str(t.PrettyName)
	overlay(&p, t)
	p.SourceMatch = model.Str(SourceMatchManualOnly)
	return p
}

// overlay copies every populated manual field onto p.
func overlay(p *model.Position, t model.ManualTrade) {
	setStr(&p.BloombergID, t.BloombergID)
	setStr(&p.PrettyName, t.PrettyName)
	setStr(&p.HedgeFamily, t.HedgeFamily)
	setStr(&p.HedgeLabel, t.HedgeLabel)
	setStr(&p.Strategy, t.Strategy)
	setStr(&p.UnderlyingType, t.UnderlyingType)
	setStr(&p.UnderlyingSymbol, t.UnderlyingSymbol)
	setStr(&p.CallPut, t.CallPut)
	setStr(&p.Expiry, t.Expiry)
	setStr(&p.Direction, t.Direction)
	setStr(&p.SpreadID, t.SpreadID)
	setStr(&p.SpreadName, t.SpreadName)
	setStr(&p.Notes, t.Notes)

	setDecimal(&p.Strike1, t.Strike1)
	setDecimal(&p.Strike2, t.Strike2)
	setDecimal(&p.NotionalUSD, t.NotionalUSD)
	setDecimal(&p.DV01USD, t.DV01Override)
	setDecimal(&p.PxLast, t.PriceOverride)

	if t.SpreadID != "" {
		p.IsSpreadLeg = true
	}
	p.ManualFlag = true
}

func classify(p *model.Position, cls Classification) {
	if p.ManualFlag && p.HedgeFamily != nil {
		return
	}

	if family, ok := cls.StrategyToFamily[model.Deref(p.Strategy)]; ok && p.Strategy != nil {
		p.HedgeFamily = model.Str(family)
	} else if p.HedgeFamily == nil {
		p.HedgeFamily = model.Str(cls.DefaultFamily)
	}

	if p.HedgeLabel == nil {
		p.HedgeLabel = model.Str(fallbackLabel(*p))
	}
}

func fallbackLabel(p model.Position) string {
	desc := model.Deref(p.InvestmentDescription)
	if strings.TrimSpace(desc) == "" {
		desc = model.Deref(p.NameClean)
	}
	if desc == "" {
		return unknownLabel
	}
	if r := []rune(desc); len(r) > labelMaxLen {
		return string(r[:labelMaxLen])
	}
	return desc
}

func setStr(dst **string, v string) {
	if v != "" {
		*dst = model.Str(v)
	}
}

func setDecimal(dst **float64, v *decimal.Decimal) {
	if v != nil {
		*dst = model.Float(v.InexactFloat64())
	}
}
