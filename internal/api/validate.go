package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hedgedesk/hedgebook/internal/classify"
	"github.com/hedgedesk/hedgebook/internal/model"
)

// ErrInvalidTrade is wrapped by every manual trade validation failure.
var ErrInvalidTrade = errors.New("api: invalid manual trade")

const maxPrettyNameLen = 200

var (
	strikeMax   = decimal.NewFromInt(10_000_000_000)
	notionalMax = decimal.NewFromInt(1_000_000_000_000)
	dv01Max     = decimal.NewFromInt(1_000_000_000)
	priceMax    = decimal.NewFromInt(10_000_000_000)
)

// ValidateManualTrade checks a manual trade before it is saved. It
// normalizes call_put and direction to upper case.
func ValidateManualTrade(t *model.ManualTrade) error {
	t.PrettyName = strings.TrimSpace(t.PrettyName)
	if t.PrettyName == "" {
		return fmt.Errorf("%w: pretty_name is required and cannot be empty or whitespace", ErrInvalidTrade)
	}
	if len([]rune(t.PrettyName)) > maxPrettyNameLen {
		return fmt.Errorf("%w: pretty_name must be %d characters or less", ErrInvalidTrade, maxPrettyNameLen)
	}

	if err := checkRange("strike_1", t.Strike1, decimal.Zero, strikeMax); err != nil {
		return err
	}
	if err := checkRange("strike_2", t.Strike2, decimal.Zero, strikeMax); err != nil {
		return err
	}
	if err := checkRange("notional_usd", t.NotionalUSD, notionalMax.Neg(), notionalMax); err != nil {
		return err
	}
	if err := checkRange("dv01_override", t.DV01Override, dv01Max.Neg(), dv01Max); err != nil {
		return err
	}
	if err := checkRange("price_override", t.PriceOverride, decimal.Zero, priceMax); err != nil {
		return err
	}

	if t.CallPut != "" {
		t.CallPut = strings.ToUpper(strings.TrimSpace(t.CallPut))
		if t.CallPut != "CALL" && t.CallPut != "PUT" {
			return fmt.Errorf("%w: call_put must be CALL or PUT", ErrInvalidTrade)
		}
	}
	if t.Direction != "" {
		t.Direction = strings.ToUpper(strings.TrimSpace(t.Direction))
		if t.Direction != "LONG" && t.Direction != "SHORT" {
			return fmt.Errorf("%w: direction must be LONG or SHORT", ErrInvalidTrade)
		}
	}
	if t.Expiry != "" {
		if _, ok := classify.ParseDate(t.Expiry); !ok {
			return fmt.Errorf("%w: expiry %q is not a valid date", ErrInvalidTrade, t.Expiry)
		}
	}
	return nil
}

func checkRange(field string, v *decimal.Decimal, lo, hi decimal.Decimal) error {
	if v == nil {
		return nil
	}
	if v.LessThan(lo) || v.GreaterThan(hi) {
		return fmt.Errorf("%w: %s must be between %s and %s", ErrInvalidTrade, field, lo.String(), hi.String())
	}
	return nil
}
