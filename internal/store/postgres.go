package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hedgedesk/hedgebook/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Strikes, notionals and overrides are stored as NUMERIC for exact decimal
// precision.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema creates the manual_trades table when it does not exist yet.
const Schema = `CREATE TABLE IF NOT EXISTS manual_trades (
	seq               BIGSERIAL PRIMARY KEY,
	id                TEXT NOT NULL UNIQUE,
	investment_id     TEXT NOT NULL DEFAULT '',
	bloomberg_id      TEXT NOT NULL DEFAULT '',
	pretty_name       TEXT NOT NULL,
	hedge_family      TEXT NOT NULL DEFAULT '',
	hedge_label       TEXT NOT NULL DEFAULT '',
	strategy          TEXT NOT NULL DEFAULT '',
	underlying_type   TEXT NOT NULL DEFAULT '',
	underlying_symbol TEXT NOT NULL DEFAULT '',
	strike_1          NUMERIC,
	strike_2          NUMERIC,
	call_put          TEXT NOT NULL DEFAULT '',
	expiry            TEXT NOT NULL DEFAULT '',
	notional_usd      NUMERIC,
	direction         TEXT NOT NULL DEFAULT '',
	spread_id         TEXT NOT NULL DEFAULT '',
	spread_name       TEXT NOT NULL DEFAULT '',
	dv01_override     NUMERIC,
	price_override    NUMERIC,
	notes             TEXT NOT NULL DEFAULT '',
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema applies Schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure manual_trades schema: %w", err)
	}
	return nil
}

const manualTradeColumns = `id, investment_id, bloomberg_id, pretty_name,
	hedge_family, hedge_label, strategy,
	underlying_type, underlying_symbol,
	strike_1::TEXT, strike_2::TEXT, call_put, expiry,
	notional_usd::TEXT, direction, spread_id, spread_name,
	dv01_override::TEXT, price_override::TEXT, notes, updated_at`

func (s *PostgresStore) UpsertManualTrade(ctx context.Context, t *model.ManualTrade) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	created := true
	if t.InvestmentID != "" {
		var existingID string
		err := tx.QueryRow(ctx,
			`SELECT id FROM manual_trades WHERE investment_id = $1 ORDER BY seq LIMIT 1 FOR UPDATE`,
			t.InvestmentID).Scan(&existingID)
		switch {
		case err == nil:
			t.ID = existingID
			created = false
		case !errors.Is(err, pgx.ErrNoRows):
			return false, fmt.Errorf("lookup manual trade %s: %w", t.InvestmentID, err)
		}
	}

	if created {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO manual_trades (id, investment_id, bloomberg_id, pretty_name,
				hedge_family, hedge_label, strategy, underlying_type, underlying_symbol,
				strike_1, strike_2, call_put, expiry, notional_usd, direction,
				spread_id, spread_name, dv01_override, price_override, notes, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
				$10::NUMERIC, $11::NUMERIC, $12, $13, $14::NUMERIC, $15,
				$16, $17, $18::NUMERIC, $19::NUMERIC, $20, $21)`,
			manualTradeArgs(t)...)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE manual_trades
			 SET investment_id = $2, bloomberg_id = $3, pretty_name = $4,
			     hedge_family = $5, hedge_label = $6, strategy = $7,
			     underlying_type = $8, underlying_symbol = $9,
			     strike_1 = $10::NUMERIC, strike_2 = $11::NUMERIC, call_put = $12, expiry = $13,
			     notional_usd = $14::NUMERIC, direction = $15, spread_id = $16, spread_name = $17,
			     dv01_override = $18::NUMERIC, price_override = $19::NUMERIC, notes = $20, updated_at = $21
			 WHERE id = $1`,
			manualTradeArgs(t)...)
	}
	if err != nil {
		return false, fmt.Errorf("write manual trade %s: %w", t.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit manual trade %s: %w", t.ID, err)
	}
	return created, nil
}

func (s *PostgresStore) GetManualTrade(ctx context.Context, id string) (*model.ManualTrade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+manualTradeColumns+` FROM manual_trades WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get manual trade %s: %w", id, err)
	}
	defer rows.Close()

	trades, err := scanManualTrades(rows)
	if err != nil {
		return nil, fmt.Errorf("get manual trade %s: %w", id, err)
	}
	if len(trades) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &trades[0], nil
}

func (s *PostgresStore) ListManualTrades(ctx context.Context) ([]model.ManualTrade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+manualTradeColumns+` FROM manual_trades ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanManualTrades(rows)
}

func (s *PostgresStore) DeleteManualTrade(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM manual_trades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete manual trade %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func manualTradeArgs(t *model.ManualTrade) []any {
	return []any{
		t.ID, t.InvestmentID, t.BloombergID, t.PrettyName,
		t.HedgeFamily, t.HedgeLabel, t.Strategy,
		t.UnderlyingType, t.UnderlyingSymbol,
		numericArg(t.Strike1), numericArg(t.Strike2), t.CallPut, t.Expiry,
		numericArg(t.NotionalUSD), t.Direction, t.SpreadID, t.SpreadName,
		numericArg(t.DV01Override), numericArg(t.PriceOverride), t.Notes, t.UpdatedAt,
	}
}

// numericArg passes a nullable decimal as NUMERIC text.
func numericArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseNumeric(s *string) *decimal.Decimal {
	if s == nil {
		return nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil
	}
	return &d
}

// pgxRows is the subset of pgx.Rows used for scanning.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanManualTrades(rows pgxRows) ([]model.ManualTrade, error) {
	var trades []model.ManualTrade
	for rows.Next() {
		var t model.ManualTrade
		var strike1, strike2, notional, dv01, price *string

		if err := rows.Scan(&t.ID, &t.InvestmentID, &t.BloombergID, &t.PrettyName,
			&t.HedgeFamily, &t.HedgeLabel, &t.Strategy,
			&t.UnderlyingType, &t.UnderlyingSymbol,
			&strike1, &strike2, &t.CallPut, &t.Expiry,
			&notional, &t.Direction, &t.SpreadID, &t.SpreadName,
			&dv01, &price, &t.Notes, &t.UpdatedAt); err != nil {
			return nil, err
		}

		t.Strike1 = parseNumeric(strike1)
		t.Strike2 = parseNumeric(strike2)
		t.NotionalUSD = parseNumeric(notional)
		t.DV01Override = parseNumeric(dv01)
		t.PriceOverride = parseNumeric(price)

		trades = append(trades, t)
	}
	return trades, rows.Err()
}
