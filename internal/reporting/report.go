package reporting

import "time"

// Report is the rendered view of one pipeline run.
type Report struct {
	// Metadata
	GeneratedAt     time.Time
	InstrumentCount int
	StrategyCount   int

	// Per-strategy performance (sorted by symbol, strategy)
	StrategyRows []StrategyRow

	// Instruments that produced no results
	Skipped []SkippedRow

	// Monte Carlo summaries (sorted by symbol)
	MonteCarloRows []MonteCarloRow

	// Portfolio construction outcome, nil when optimization did not run
	Optimization *OptimizationSection

	// Non-fatal run errors
	Errors []string
}

// StrategyRow is one (symbol, strategy) performance line.
type StrategyRow struct {
	Symbol           string
	Strategy         string
	TotalReturn      float64
	AnnualizedReturn float64
	Volatility       float64
	SharpeRatio      float64
	SortinoRatio     float64
	MaxDrawdown      float64
	TotalTrades      int
	WinRate          float64
	ProfitFactor     float64
}

// SkippedRow records an instrument the pipeline could not process.
type SkippedRow struct {
	Symbol string
	Reason string
}

// MonteCarloRow summarizes one instrument's simulation distribution.
type MonteCarloRow struct {
	Symbol         string
	Method         string
	NumSimulations int
	FailedSims     int
	MeanReturn     float64
	MedianReturn   float64
	VaR95          float64
	CVaR95         float64
	ProbProfit     float64
	CI95Low        float64
	CI95High       float64
}

// OptimizationSection describes the constructed portfolio.
type OptimizationSection struct {
	Method               string
	ExpectedReturn       float64
	Volatility           float64
	SharpeRatio          float64
	Weights              []WeightRow // sorted by symbol
	ConstraintsSatisfied map[string]bool
}

// WeightRow is one instrument's allocation with its selection rationale.
type WeightRow struct {
	Symbol    string
	Weight    float64
	Rationale string
}
