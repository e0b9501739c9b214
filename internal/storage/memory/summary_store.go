package memory

import (
	"context"
	"sort"
	"sync"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/storage"
)

type summaryKey struct {
	symbol   string
	strategy string
}

// SummaryStore is an in-memory implementation of storage.SummaryStore.
type SummaryStore struct {
	mu   sync.RWMutex
	data map[summaryKey]*domain.BacktestSummary
}

// NewSummaryStore creates a new in-memory summary store.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{data: make(map[summaryKey]*domain.BacktestSummary)}
}

// Compile-time interface check.
var _ storage.SummaryStore = (*SummaryStore)(nil)

// Upsert inserts or replaces the summary for its (symbol, strategy) key.
func (s *SummaryStore) Upsert(_ context.Context, sum *domain.BacktestSummary) error {
	if sum == nil || sum.Symbol == "" || sum.StrategyName == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summaryCopy := *sum
	s.data[summaryKey{sum.Symbol, sum.StrategyName}] = &summaryCopy
	return nil
}

// GetByKey retrieves one summary. Returns ErrNotFound if absent.
func (s *SummaryStore) GetByKey(_ context.Context, symbol, strategyName string) (*domain.BacktestSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum, exists := s.data[summaryKey{symbol, strategyName}]
	if !exists {
		return nil, storage.ErrNotFound
	}
	summaryCopy := *sum
	return &summaryCopy, nil
}

// List retrieves all summaries ordered by symbol, then strategy.
func (s *SummaryStore) List(_ context.Context) ([]*domain.BacktestSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.BacktestSummary, 0, len(s.data))
	for _, sum := range s.data {
		summaryCopy := *sum
		out = append(out, &summaryCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].StrategyName < out[j].StrategyName
	})
	return out, nil
}
