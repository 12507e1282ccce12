package store

import (
	"context"
	"sync"

	"github.com/synthx/elastic-engine/internal/model"
)

// MemoryStore implements Store with an in-memory slice. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu     sync.RWMutex
	trades []model.TradeRecord
}

// NewMemoryStore creates a new in-memory journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) InsertTrade(_ context.Context, rec *model.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, *rec)
	return nil
}

func (s *MemoryStore) TradesBySymbol(_ context.Context, symbolID uint32, limit int) ([]model.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.TradeRecord
	for i := len(s.trades) - 1; i >= 0; i-- {
		if s.trades[i].SymbolID == symbolID {
			result = append(result, s.trades[i])
			if limit > 0 && len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (s *MemoryStore) TradesByAccount(_ context.Context, account string) ([]model.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.TradeRecord
	for i := len(s.trades) - 1; i >= 0; i-- {
		if s.trades[i].Account == account {
			result = append(result, s.trades[i])
		}
	}
	return result, nil
}
