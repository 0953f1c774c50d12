package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hedgedesk/hedgebook/internal/model"
)

// MemoryStore implements Store with an in-memory slice. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu     sync.RWMutex
	trades []model.ManualTrade
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) UpsertManualTrade(_ context.Context, t *model.ManualTrade) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.InvestmentID != "" {
		for i := range s.trades {
			if s.trades[i].InvestmentID == t.InvestmentID {
				t.ID = s.trades[i].ID
				s.trades[i] = *t
				return false, nil
			}
		}
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	for _, existing := range s.trades {
		if existing.ID == t.ID {
			return false, fmt.Errorf("manual trade %s already exists", t.ID)
		}
	}
	// Store a copy to avoid external mutation.
	s.trades = append(s.trades, *t)
	return true, nil
}

func (s *MemoryStore) GetManualTrade(_ context.Context, id string) (*model.ManualTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.trades {
		if t.ID == id {
			copy := t
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *MemoryStore) ListManualTrades(_ context.Context) ([]model.ManualTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := make([]model.ManualTrade, len(s.trades))
	copy(trades, s.trades)
	return trades, nil
}

func (s *MemoryStore) DeleteManualTrade(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.trades {
		if t.ID == id {
			s.trades = append(s.trades[:i], s.trades[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
