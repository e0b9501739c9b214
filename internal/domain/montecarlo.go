package domain

// Resampling method identifiers.
const (
	ResampleBootstrap      = "bootstrap"
	ResampleBlockBootstrap = "block_bootstrap"
	ResampleRandomWalk     = "random_walk"
)

// MonteCarloResult aggregates the outcome distribution of N resampled
// backtest runs. The per-simulation slices are index-aligned and ordered
// by simulation index, so a fixed seed yields bit-identical arrays
// regardless of worker count.
type MonteCarloResult struct {
	StrategyName   string
	Symbol         string
	Method         string
	Seed           int64
	NumSimulations int
	FailedSims     int // simulations excluded under the failure policy

	// Per-simulation outcomes, one entry per included simulation.
	Returns      []float64
	FinalValues  []float64
	MaxDrawdowns []float64
	SharpeRatios []float64

	// Distribution summary of Returns.
	MeanReturn   float64
	MedianReturn float64
	StdReturn    float64
	Percentiles  map[int]float64 // 5, 25, 50, 75, 95

	VaR95             float64 // 5th percentile of simulated returns
	CVaR95            float64 // mean of returns at or below VaR95
	ProbProfit        float64
	ProbLoss          float64
	BestCase          float64 // 99th percentile return
	WorstCase         float64 // 1st percentile return
	ExpectedShortfall float64 // mean of negative returns
	CI95Low           float64 // 2.5th percentile
	CI95High          float64 // 97.5th percentile
}
