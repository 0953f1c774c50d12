// Package book holds the current hedge book: source rows joined with manual
// trades and classified into hedge families. Readers get an immutable
// snapshot; a refresh swaps the snapshot atomically.
package book

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hedgedesk/hedgebook/internal/metrics"
	"github.com/hedgedesk/hedgebook/internal/model"
	"github.com/hedgedesk/hedgebook/internal/source"
	"github.com/hedgedesk/hedgebook/internal/store"
)

// Options configures a Book.
type Options struct {
	// PortfolioFilter selects the rows forming the basis-point denominator.
	PortfolioFilter string
	Classification  Classification
	// Now defaults to time.Now.
	Now func() time.Time
}

// Book caches the joined row set and reloads it on demand.
type Book struct {
	src  source.Source
	st   store.Store
	opts Options

	mu             sync.RWMutex
	loaded         bool
	rows           []model.Position
	portfolioTotal float64
	loadedAt       time.Time
}

// New creates a book over a position source and a manual trade store.
func New(src source.Source, st store.Store, opts Options) *Book {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Book{src: src, st: st, opts: opts}
}

// Refresh reloads source rows and manual trades and swaps in the new
// snapshot. On failure the previous snapshot is kept.
func (b *Book) Refresh(ctx context.Context) error {
	rows, err := b.src.Positions(ctx)
	if err != nil {
		metrics.BookReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("load positions: %w", err)
	}
	trades, err := b.st.ListManualTrades(ctx)
	if err != nil {
		metrics.BookReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("load manual trades: %w", err)
	}

	now := b.opts.Now().UTC()
	joined := Join(rows, trades, b.opts.Classification, now)
	total := PortfolioTotalMV(rows, b.opts.PortfolioFilter)

	b.mu.Lock()
	b.rows = joined
	b.portfolioTotal = total
	b.loadedAt = now
	b.loaded = true
	b.mu.Unlock()

	metrics.BookReloads.WithLabelValues("ok").Inc()
	metrics.BookRows.Set(float64(len(joined)))

	slog.Info("book loaded",
		"source_rows", len(rows),
		"manual_trades", len(trades),
		"rows", len(joined),
		"portfolio", b.opts.PortfolioFilter,
		"portfolio_total_mv", total,
	)
	return nil
}

// Rows returns the current snapshot, loading it on first use. Callers must
// not modify the returned rows.
func (b *Book) Rows(ctx context.Context) ([]model.Position, error) {
	if err := b.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rows, nil
}

// PortfolioTotalMV returns the basis-point denominator of the current
// snapshot.
func (b *Book) PortfolioTotalMV(ctx context.Context) (float64, error) {
	if err := b.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.portfolioTotal, nil
}

// LoadedAt reports when the current snapshot was built. The zero time means
// nothing has been loaded yet.
func (b *Book) LoadedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loadedAt
}

// SourceModTime reports when the snapshot file was last written. It reports
// false for sources that are not files or when the file cannot be stat'ed.
func (b *Book) SourceModTime() (time.Time, bool) {
	mt, ok := b.src.(source.ModTimer)
	if !ok {
		return time.Time{}, false
	}
	t, err := mt.ModTime()
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// RemoteRollup fetches the upstream's own rollup for verification.
func (b *Book) RemoteRollup(ctx context.Context) (*model.RollupResponse, error) {
	rs, ok := b.src.(source.RollupSource)
	if !ok {
		return nil, source.ErrNoRollup
	}
	return rs.Rollup(ctx)
}

func (b *Book) ensureLoaded(ctx context.Context) error {
	b.mu.RLock()
	loaded := b.loaded
	b.mu.RUnlock()
	if loaded {
		return nil
	}
	return b.Refresh(ctx)
}
