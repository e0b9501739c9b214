package domain

import "time"

// BacktestSummary is the persistable summary row of one backtest run,
// keyed by (symbol, strategy). The equity curve and trade ledger are
// stored separately.
type BacktestSummary struct {
	Symbol           string
	StrategyName     string
	StartDate        time.Time
	EndDate          time.Time
	InitialCapital   float64
	FinalCapital     float64
	TotalReturn      float64
	AnnualizedReturn float64
	Volatility       float64
	SharpeRatio      float64
	MaxDrawdown      float64
	TotalTrades      int
	WinRate          float64
}
