package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hedgedesk/hedgebook/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) UpsertManualTrade(ctx context.Context, t *model.ManualTrade) (bool, error) {
	created, err := s.primary.UpsertManualTrade(ctx, t)
	if err != nil {
		return false, err
	}
	s.rdb.Del(ctx, listKey, tradeKey(t.ID))
	return created, nil
}

func (s *CachedStore) DeleteManualTrade(ctx context.Context, id string) error {
	if err := s.primary.DeleteManualTrade(ctx, id); err != nil {
		return err
	}
	s.rdb.Del(ctx, listKey, tradeKey(id))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetManualTrade(ctx context.Context, id string) (*model.ManualTrade, error) {
	data, err := s.rdb.Get(ctx, tradeKey(id)).Bytes()
	if err == nil {
		var t model.ManualTrade
		if json.Unmarshal(data, &t) == nil {
			return &t, nil
		}
	}

	// Cache miss: read from primary.
	t, err := s.primary.GetManualTrade(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(t); err == nil {
		s.rdb.Set(ctx, tradeKey(id), data, s.ttl)
	}
	return t, nil
}

func (s *CachedStore) ListManualTrades(ctx context.Context) ([]model.ManualTrade, error) {
	data, err := s.rdb.Get(ctx, listKey).Bytes()
	if err == nil {
		var trades []model.ManualTrade
		if json.Unmarshal(data, &trades) == nil {
			return trades, nil
		}
	}

	trades, err := s.primary.ListManualTrades(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(trades); err == nil {
		s.rdb.Set(ctx, listKey, data, s.ttl)
	}
	return trades, nil
}

// --- Cache helpers ---

const listKey = "manual_trades:all"

func tradeKey(id string) string { return fmt.Sprintf("manual_trade:%s", id) }
