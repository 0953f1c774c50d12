// Package store persists manually entered or corrected trade records.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache) and in-memory (for testing and single-node development).
package store

import (
	"context"
	"errors"

	"github.com/hedgedesk/hedgebook/internal/model"
)

// ErrNotFound is returned when a manual trade id does not exist.
var ErrNotFound = errors.New("store: manual trade not found")

// Store is the persistence interface for manual trades.
type Store interface {
	// UpsertManualTrade updates the trade sharing the same non-empty
	// investment id, or appends a new one. It assigns an ID to new trades
	// that lack one and reports whether the trade was newly created.
	UpsertManualTrade(ctx context.Context, trade *model.ManualTrade) (bool, error)

	// GetManualTrade retrieves a trade by its ID.
	GetManualTrade(ctx context.Context, id string) (*model.ManualTrade, error)

	// ListManualTrades returns every trade in entry order.
	ListManualTrades(ctx context.Context) ([]model.ManualTrade, error)

	// DeleteManualTrade removes a trade by its ID.
	DeleteManualTrade(ctx context.Context, id string) error
}
