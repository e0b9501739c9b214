package domain

import "time"

// PerformanceMetrics holds return, risk, and trading statistics derived
// from one BacktestResult plus a risk-free-rate parameter. All ratios are
// division-by-zero guarded: zero volatility yields Sharpe/Sortino of 0,
// only ProfitFactor may legitimately be +Inf.
type PerformanceMetrics struct {
	StrategyName string
	Symbol       string

	// Returns
	TotalReturn      float64 // fractional, e.g. 0.42 = 42%
	AnnualizedReturn float64
	DollarReturn     float64

	// Risk
	Volatility  float64 // annualized std of daily returns
	MaxDrawdown float64 // most negative peak-to-trough, e.g. -0.18
	VaR95       float64 // 5th-percentile historical daily return
	CVaR95      float64 // mean daily return at or below VaR95

	// Risk-adjusted
	SharpeRatio  float64
	SortinoRatio float64
	CalmarRatio  float64

	// Trading
	TotalTrades  int
	WinRate      float64
	AverageWin   float64
	AverageLoss  float64
	ProfitFactor float64 // gross profit / gross loss, +Inf if no losses

	// Monthly
	BestMonth         float64
	BestMonthLabel    string // "2023-07"
	WorstMonth        float64
	WorstMonthLabel   string
	PositiveMonthsPct float64
	TradingDays       int
}

// DrawdownEpisode is one contiguous span where drawdown from the running
// peak exceeded the detection threshold.
type DrawdownEpisode struct {
	StartDate    time.Time // first date below the pre-drawdown peak
	TroughDate   time.Time // date of the deepest point
	RecoveryDate time.Time // zero if equity never regained the peak in-window
	Depth        float64   // most negative drawdown in the episode
	DurationDays int
	Recovered    bool
}

// DrawdownAnalysis summarizes peak-to-trough behavior of an equity curve.
type DrawdownAnalysis struct {
	MaxDrawdown     float64
	MaxStartDate    time.Time
	MaxTroughDate   time.Time
	MaxRecoveryDate time.Time
	MaxRecovered    bool
	EpisodeCount    int
	AvgDurationDays float64
	LongestEpisode  *DrawdownEpisode
}
