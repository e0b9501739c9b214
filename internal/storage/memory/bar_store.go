// Package memory provides in-memory store implementations, used by tests
// and by pipeline runs that load bars from CSV instead of a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/storage"
)

// BarStore is an in-memory implementation of storage.BarStore.
type BarStore struct {
	mu   sync.RWMutex
	data map[string][]domain.Bar // keyed by symbol, kept date-sorted
}

// NewBarStore creates a new in-memory bar store.
func NewBarStore() *BarStore {
	return &BarStore{data: make(map[string][]domain.Bar)}
}

// Compile-time interface check.
var _ storage.BarStore = (*BarStore)(nil)

// InsertBulk adds bars for one symbol. Fails the entire batch with
// ErrDuplicateKey on any duplicate (symbol, date).
func (s *BarStore) InsertBulk(_ context.Context, symbol string, bars []domain.Bar) error {
	if symbol == "" || len(bars) == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[symbol]
	seen := make(map[time.Time]struct{}, len(existing)+len(bars))
	for _, b := range existing {
		seen[b.Date] = struct{}{}
	}
	for _, b := range bars {
		if _, dup := seen[b.Date]; dup {
			return storage.ErrDuplicateKey
		}
		seen[b.Date] = struct{}{}
	}

	merged := append(append([]domain.Bar(nil), existing...), bars...)
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	s.data[symbol] = merged
	return nil
}

// GetBySymbol retrieves the full series, ordered by date ASC.
func (s *BarStore) GetBySymbol(_ context.Context, symbol string) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars, exists := s.data[symbol]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return append([]domain.Bar(nil), bars...), nil
}

// GetByDateRange retrieves bars within [start, end] inclusive.
func (s *BarStore) GetByDateRange(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bars, exists := s.data[symbol]
	if !exists {
		return nil, storage.ErrNotFound
	}
	var out []domain.Bar
	for _, b := range bars {
		if !b.Date.Before(start) && !b.Date.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Symbols lists all stored symbols in lexical order.
func (s *BarStore) Symbols(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.data))
	for sym := range s.data {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}
