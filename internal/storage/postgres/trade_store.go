package postgres

import (
	"context"
	"fmt"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO trades (
		strategy_name, symbol,
		entry_date, exit_date, entry_price, exit_price,
		shares, dividends, entry_cost, exit_cost
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

// InsertBulk appends trades produced by one strategy run atomically.
func (s *TradeStore) InsertBulk(ctx context.Context, strategyName string, trades []*domain.Trade) error {
	if strategyName == "" {
		return storage.ErrInvalidInput
	}
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertTradeQuery,
			strategyName, t.Symbol,
			t.EntryDate, t.ExitDate, t.EntryPrice, t.ExitPrice,
			t.Shares, t.Dividends, t.EntryCost, t.ExitCost,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trade: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByStrategy retrieves all trades for (strategy, symbol), ordered by
// entry date ASC.
func (s *TradeStore) GetByStrategy(ctx context.Context, strategyName, symbol string) ([]*domain.Trade, error) {
	query := `
		SELECT symbol, entry_date, exit_date, entry_price, exit_price,
		       shares, dividends, entry_cost, exit_cost
		FROM trades
		WHERE strategy_name = $1 AND symbol = $2
		ORDER BY entry_date ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, strategyName, symbol)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		err := rows.Scan(
			&t.Symbol, &t.EntryDate, &t.ExitDate, &t.EntryPrice, &t.ExitPrice,
			&t.Shares, &t.Dividends, &t.EntryCost, &t.ExitCost,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trades: %w", err)
	}
	return out, nil
}
