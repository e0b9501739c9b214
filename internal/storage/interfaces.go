// Package storage defines the persistence interfaces for bar series,
// trade ledgers, and backtest summaries, with in-memory, Postgres, and
// ClickHouse implementations in subpackages.
package storage

import (
	"context"
	"time"

	"dividend-strategy-lab/internal/domain"
)

// BarStore provides access to per-instrument daily bar series. Series are
// append-only: a (symbol, date) pair may be written once.
type BarStore interface {
	// InsertBulk adds bars for one symbol. Fails the entire batch with
	// ErrDuplicateKey on any duplicate (symbol, date).
	InsertBulk(ctx context.Context, symbol string, bars []domain.Bar) error

	// GetBySymbol retrieves the full series, ordered by date ASC.
	// Returns ErrNotFound for an unknown symbol.
	GetBySymbol(ctx context.Context, symbol string) ([]domain.Bar, error)

	// GetByDateRange retrieves bars within [start, end] inclusive,
	// ordered by date ASC. Returns ErrNotFound for an unknown symbol.
	GetByDateRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// Symbols lists all stored symbols in lexical order.
	Symbols(ctx context.Context) ([]string, error)
}

// TradeStore provides access to completed round-trip trades, grouped by
// the strategy that produced them.
type TradeStore interface {
	// InsertBulk appends trades produced by one strategy run.
	InsertBulk(ctx context.Context, strategyName string, trades []*domain.Trade) error

	// GetByStrategy retrieves all trades for (strategy, symbol), ordered
	// by entry date ASC.
	GetByStrategy(ctx context.Context, strategyName, symbol string) ([]*domain.Trade, error)
}

// SummaryStore provides access to backtest summary rows keyed by
// (symbol, strategy). Re-running a backtest overwrites the summary.
type SummaryStore interface {
	// Upsert inserts or replaces the summary for its (symbol, strategy) key.
	Upsert(ctx context.Context, s *domain.BacktestSummary) error

	// GetByKey retrieves one summary. Returns ErrNotFound if absent.
	GetByKey(ctx context.Context, symbol, strategyName string) (*domain.BacktestSummary, error)

	// List retrieves all summaries ordered by symbol, then strategy.
	List(ctx context.Context) ([]*domain.BacktestSummary, error)
}
