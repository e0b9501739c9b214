package postgres

import (
	"context"
	"fmt"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/storage"
)

// SummaryStore implements storage.SummaryStore using PostgreSQL.
type SummaryStore struct {
	pool *Pool
}

// NewSummaryStore creates a new SummaryStore.
func NewSummaryStore(pool *Pool) *SummaryStore {
	return &SummaryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SummaryStore = (*SummaryStore)(nil)

// Upsert inserts or replaces the summary for its (symbol, strategy) key.
func (s *SummaryStore) Upsert(ctx context.Context, sum *domain.BacktestSummary) error {
	if sum == nil || sum.Symbol == "" || sum.StrategyName == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO backtest_summaries (
			symbol, strategy_name, start_date, end_date,
			initial_capital, final_capital, total_return, annualized_return,
			volatility, sharpe_ratio, max_drawdown, total_trades, win_rate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (symbol, strategy_name) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			initial_capital = EXCLUDED.initial_capital,
			final_capital = EXCLUDED.final_capital,
			total_return = EXCLUDED.total_return,
			annualized_return = EXCLUDED.annualized_return,
			volatility = EXCLUDED.volatility,
			sharpe_ratio = EXCLUDED.sharpe_ratio,
			max_drawdown = EXCLUDED.max_drawdown,
			total_trades = EXCLUDED.total_trades,
			win_rate = EXCLUDED.win_rate
	`

	_, err := s.pool.Exec(ctx, query,
		sum.Symbol, sum.StrategyName, sum.StartDate, sum.EndDate,
		sum.InitialCapital, sum.FinalCapital, sum.TotalReturn, sum.AnnualizedReturn,
		sum.Volatility, sum.SharpeRatio, sum.MaxDrawdown, sum.TotalTrades, sum.WinRate,
	)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

const selectSummaryColumns = `
	symbol, strategy_name, start_date, end_date,
	initial_capital, final_capital, total_return, annualized_return,
	volatility, sharpe_ratio, max_drawdown, total_trades, win_rate
`

// GetByKey retrieves one summary. Returns ErrNotFound if absent.
func (s *SummaryStore) GetByKey(ctx context.Context, symbol, strategyName string) (*domain.BacktestSummary, error) {
	query := `SELECT ` + selectSummaryColumns + `
		FROM backtest_summaries
		WHERE symbol = $1 AND strategy_name = $2
	`

	var sum domain.BacktestSummary
	err := s.pool.QueryRow(ctx, query, symbol, strategyName).Scan(
		&sum.Symbol, &sum.StrategyName, &sum.StartDate, &sum.EndDate,
		&sum.InitialCapital, &sum.FinalCapital, &sum.TotalReturn, &sum.AnnualizedReturn,
		&sum.Volatility, &sum.SharpeRatio, &sum.MaxDrawdown, &sum.TotalTrades, &sum.WinRate,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query summary: %w", err)
	}
	return &sum, nil
}

// List retrieves all summaries ordered by symbol, then strategy.
func (s *SummaryStore) List(ctx context.Context) ([]*domain.BacktestSummary, error) {
	query := `SELECT ` + selectSummaryColumns + `
		FROM backtest_summaries
		ORDER BY symbol ASC, strategy_name ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []*domain.BacktestSummary
	for rows.Next() {
		var sum domain.BacktestSummary
		err := rows.Scan(
			&sum.Symbol, &sum.StrategyName, &sum.StartDate, &sum.EndDate,
			&sum.InitialCapital, &sum.FinalCapital, &sum.TotalReturn, &sum.AnnualizedReturn,
			&sum.Volatility, &sum.SharpeRatio, &sum.MaxDrawdown, &sum.TotalTrades, &sum.WinRate,
		)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}
