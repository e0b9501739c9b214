package memory

import (
	"context"
	"sort"
	"sync"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.Trade // keyed by strategy name
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{data: make(map[string][]*domain.Trade)}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk appends trades produced by one strategy run.
func (s *TradeStore) InsertBulk(_ context.Context, strategyName string, trades []*domain.Trade) error {
	if strategyName == "" {
		return storage.ErrInvalidInput
	}
	for _, t := range trades {
		if t == nil {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range trades {
		// Store copies to prevent external mutation.
		tradeCopy := *t
		s.data[strategyName] = append(s.data[strategyName], &tradeCopy)
	}
	return nil
}

// GetByStrategy retrieves all trades for (strategy, symbol), ordered by
// entry date ASC.
func (s *TradeStore) GetByStrategy(_ context.Context, strategyName, symbol string) ([]*domain.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Trade
	for _, t := range s.data[strategyName] {
		if t.Symbol == symbol {
			tradeCopy := *t
			out = append(out, &tradeCopy)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntryDate.Before(out[j].EntryDate) })
	return out, nil
}
