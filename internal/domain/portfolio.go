package domain

// InstrumentStats holds one candidate instrument's summary statistics as
// consumed by the portfolio selector and optimizer. StrategyReturns is
// keyed by strategy type and holds fractional total returns.
type InstrumentStats struct {
	Symbol          string
	ExpectedReturn  float64            // fractional annual expected return
	Volatility      float64            // fractional annualized volatility
	StrategyReturns map[string]float64 // strategy type -> total return
	ExDividendDay   string             // weekday label, e.g. "Monday"
	Correlations    map[string]float64 // symbol -> pairwise return correlation

	// Qualification flags set by the selection rules.
	QualifiesRule1 bool
	QualifiesRule2 bool
}

// BuyHoldReturn returns the buy-and-hold strategy return, 0 if absent.
func (s *InstrumentStats) BuyHoldReturn() float64 {
	return s.StrategyReturns[StrategyTypeBuyAndHold]
}

// DividendCaptureReturn returns the dividend-capture strategy return,
// 0 if absent.
func (s *InstrumentStats) DividendCaptureReturn() float64 {
	return s.StrategyReturns[StrategyTypeDividendCapture]
}

// Qualifies reports whether either selection rule admitted the instrument.
func (s *InstrumentStats) Qualifies() bool {
	return s.QualifiesRule1 || s.QualifiesRule2
}

// Optimization method identifiers.
const (
	OptimizeMaxSharpe   = "max_sharpe"
	OptimizeMinVariance = "min_variance"
	OptimizeEqualWeight = "equal_weight"
)

// OptimizationResult is the terminal output of a portfolio optimization.
type OptimizationResult struct {
	Method               string
	Weights              map[string]float64 // symbol -> weight, sums to 1
	ExpectedReturn       float64
	Volatility           float64
	SharpeRatio          float64
	SelectedSymbols      []string          // instruments that survived selection
	SelectionRationale   map[string]string // symbol -> human-readable reason
	ConstraintsSatisfied map[string]bool   // e.g. "volatility_ceiling", "converged"
}

// FrontierPoint is one portfolio on the efficient-frontier sweep.
type FrontierPoint struct {
	Return     float64
	Volatility float64
	Sharpe     float64
}
