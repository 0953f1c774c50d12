// Package model defines the core domain types shared across the hedge book.
// Position rows arrive already priced; every numeric field is optional and a
// nil pointer means "unknown", never zero.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is one row of the hedge book after joining positions, risk and
// reference data. Rows are immutable once loaded.
type Position struct {
	// Organizational identifiers
	Portfolio             *string `json:"portfolio"`
	LocationAccount       *string `json:"location_account"`
	Strategy              *string `json:"strategy"`
	InvestmentID          *string `json:"investment_id"`
	InvestmentDescription *string `json:"investment_description"`

	// Security identifiers
	BloombergID *string `json:"id_bb_sec_num_des"`
	SecID       *string `json:"secid"`
	NameClean   *string `json:"name_clean"`

	ManualFlag  bool    `json:"manual_flag"`
	HedgeLabel  *string `json:"hedge_label"`
	HedgeFamily *string `json:"hedge_family"`

	// Currency and pricing
	LocalCcy     *string  `json:"local_ccy"`
	LongMV       *float64 `json:"long_mv"`
	ShortMV      *float64 `json:"short_mv"`
	MVUSD        *float64 `json:"mv_ssc_usd"`
	PricePrior   *float64 `json:"price_prior"`
	PriceCurrent *float64 `json:"price_current"`

	PnL1DUSD  *float64 `json:"pnl_1d_usd"`
	PnLMTDUSD *float64 `json:"pnl_mtd_usd"`

	// Risk
	DV01USD  *float64 `json:"dv01_usd"`
	CS01USD  *float64 `json:"cs01_usd"`
	BetaSPX  *float64 `json:"beta_spx"`
	DeltaSPX *float64 `json:"delta_spx"`
	VegaSPX  *float64 `json:"vega_spx"`

	// Market data
	Vol90D        *float64 `json:"vol_90d"`
	PxLast        *float64 `json:"px_last"`
	PxMid         *float64 `json:"px_mid"`
	Maturity      *string  `json:"maturity"`
	YieldYTMAsk   *float64 `json:"yld_ytm_ask"`
	SwapSpread    *float64 `json:"sw_spread"`
	CDSFlatSpread *float64 `json:"cds_flat_spread"`

	// Manual entry descriptive fields
	PrettyName       *string  `json:"pretty_name"`
	UnderlyingType   *string  `json:"underlying_type"`
	UnderlyingSymbol *string  `json:"underlying_symbol"`
	Strike1          *float64 `json:"strike_1"`
	Strike2          *float64 `json:"strike_2"`
	CallPut          *string  `json:"call_put"`
	Expiry           *string  `json:"expiry"`
	NotionalUSD      *float64 `json:"notional_usd"`
	Direction        *string  `json:"direction"`
	Notes            *string  `json:"notes"`

	// Package linking
	SpreadID    *string `json:"spread_id"`
	SpreadName  *string `json:"spread_name"`
	IsSpreadLeg bool    `json:"is_spread_leg"`

	// Provenance
	DataFreshness   *time.Time `json:"data_freshness_ts"`
	SourceMatch     *string    `json:"source_match"`
	MatchConfidence *int       `json:"match_confidence"`
}

// GroupedMetrics is the sum of the headline metrics over a subset of rows.
type GroupedMetrics struct {
	MVUSD         float64 `json:"mv_ssc_usd"`
	PnL1DUSD      float64 `json:"pnl_1d_usd"`
	PnLMTDUSD     float64 `json:"pnl_mtd_usd"`
	PositionCount int     `json:"position_count"`
}

// FamilyBucket is a rollup bucket keyed by hedge family.
type FamilyBucket struct {
	HedgeFamily string `json:"hedge_family"`
	GroupedMetrics
}

// StrategyBucket is a rollup bucket keyed by strategy.
type StrategyBucket struct {
	Strategy string `json:"strategy"`
	GroupedMetrics
}

// FamilyStrategyBucket is a rollup bucket keyed by (family, strategy).
type FamilyStrategyBucket struct {
	HedgeFamily string `json:"hedge_family"`
	Strategy    string `json:"strategy"`
	GroupedMetrics
}

// Totals aggregates the whole book. Greek totals are nil when no row
// carries the metric, which is different from a zero exposure.
type Totals struct {
	TotalMVUSD     float64 `json:"total_mv_ssc_usd"`
	TotalDV01USD   float64 `json:"total_dv01_usd"`
	TotalCS01USD   float64 `json:"total_cs01_usd"`
	TotalPnL1DUSD  float64 `json:"total_pnl_1d_usd"`
	TotalPnLMTDUSD float64 `json:"total_pnl_mtd_usd"`
	TotalLongMV    float64 `json:"total_long_mv"`
	TotalShortMV   float64 `json:"total_short_mv"`
	RowCount       int     `json:"row_count"`

	TotalBetaSPX  *float64 `json:"total_beta_spx"`
	TotalDeltaSPX *float64 `json:"total_delta_spx"`
	TotalVegaSPX  *float64 `json:"total_vega_spx"`
}

// RollupHeader is the summary header: totals plus the three grouped views.
type RollupHeader struct {
	Totals              Totals                 `json:"totals"`
	ByFamily            []FamilyBucket         `json:"by_family"`
	ByStrategy          []StrategyBucket       `json:"by_strategy"`
	ByFamilyAndStrategy []FamilyStrategyBucket `json:"by_family_and_strategy"`
}

// RollupResponse is the payload of GET /rollup.
type RollupResponse struct {
	Header           RollupHeader           `json:"header"`
	GroupedRows      []FamilyStrategyBucket `json:"grouped_rows"`
	PortfolioTotalMV float64                `json:"portfolio_total_mv"`
}

// ExpiryExposure is one rung of the expiry ladder.
type ExpiryExposure struct {
	Bucket       string  `json:"bucket"`
	MarketValue  float64 `json:"market_value"`
	Count        int     `json:"count"`
	DisplayOrder int     `json:"display_order"`
}

// AssetTypeExposure is the gross exposure of one asset-type category.
type AssetTypeExposure struct {
	AssetType   string  `json:"asset_type"`
	MarketValue float64 `json:"market_value"`
	Percentage  float64 `json:"percentage"`
	Color       string  `json:"color"`
}

// SpreadAggregate is the package-level view of all legs sharing a spread id.
type SpreadAggregate struct {
	SpreadID    string  `json:"spread_id"`
	SpreadName  string  `json:"spread_name"`
	MVTotal     float64 `json:"mv_total"`
	PnL1DTotal  float64 `json:"pnl_1d_total"`
	PnLMTDTotal float64 `json:"pnl_mtd_total"`
	LegCount    int     `json:"leg_count"`
}

// LegView pairs a leg's own figures with its package totals. The two are
// shown side by side and never merged.
type LegView struct {
	Position Position        `json:"position"`
	Package  SpreadAggregate `json:"package"`
}

// ManualTrade is a trade record entered or corrected by hand. Money and
// strike fields are decimals; they are converted to float only when
// overlaid on a Position.
type ManualTrade struct {
	ID               string           `json:"id" db:"id"`
	InvestmentID     string           `json:"investment_id" db:"investment_id"`
	BloombergID      string           `json:"bloomberg_id" db:"bloomberg_id"`
	PrettyName       string           `json:"pretty_name" db:"pretty_name"`
	HedgeFamily      string           `json:"hedge_family" db:"hedge_family"`
	HedgeLabel       string           `json:"hedge_label" db:"hedge_label"`
	Strategy         string           `json:"strategy" db:"strategy"`
	UnderlyingType   string           `json:"underlying_type" db:"underlying_type"`
	UnderlyingSymbol string           `json:"underlying_symbol" db:"underlying_symbol"`
	Strike1          *decimal.Decimal `json:"strike_1" db:"strike_1"`
	Strike2          *decimal.Decimal `json:"strike_2" db:"strike_2"`
	CallPut          string           `json:"call_put" db:"call_put"`
	Expiry           string           `json:"expiry" db:"expiry"`
	NotionalUSD      *decimal.Decimal `json:"notional_usd" db:"notional_usd"`
	Direction        string           `json:"direction" db:"direction"`
	SpreadID         string           `json:"spread_id" db:"spread_id"`
	SpreadName       string           `json:"spread_name" db:"spread_name"`
	DV01Override     *decimal.Decimal `json:"dv01_override" db:"dv01_override"`
	PriceOverride    *decimal.Decimal `json:"price_override" db:"price_override"`
	Notes            string           `json:"notes" db:"notes"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// Str returns a pointer to s, for building rows in code and tests.
func Str(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }

// Deref returns the value behind p, or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
