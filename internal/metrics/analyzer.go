// Package metrics computes performance statistics from backtest results.
// All functions are pure: they read the result and never mutate it, so
// analyzing the same result twice yields identical output.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"dividend-strategy-lab/internal/domain"
)

var (
	// ErrEmptyResult is returned when a result has no equity curve to analyze.
	ErrEmptyResult = errors.New("metrics: result has no equity curve")
)

// tradingDaysPerYear is the annualization base for daily returns.
const tradingDaysPerYear = 252.0

// drawdownThreshold is the minimum depth for a drawdown episode to count.
const drawdownThreshold = -0.01

// Analyzer computes performance metrics against a fixed risk-free rate.
type Analyzer struct {
	riskFreeRate float64
}

// NewAnalyzer returns an Analyzer using riskFreeRate (annualized, e.g. 0.04).
func NewAnalyzer(riskFreeRate float64) *Analyzer {
	return &Analyzer{riskFreeRate: riskFreeRate}
}

// Analyze computes the full metric set for one backtest result.
// Degenerate inputs (zero volatility, zero trades) produce zero-valued
// fields rather than NaN; ProfitFactor is the only field that may be +Inf.
func (a *Analyzer) Analyze(result *domain.BacktestResult) (*domain.PerformanceMetrics, error) {
	if result == nil || len(result.EquityCurve) == 0 {
		return nil, ErrEmptyResult
	}

	daily := result.DailyReturns()
	tradingDays := len(result.EquityCurve)

	m := &domain.PerformanceMetrics{
		StrategyName: result.StrategyName,
		Symbol:       result.Symbol,
		TotalReturn:  result.TotalReturnPct(),
		DollarReturn: result.FinalCapital - result.InitialCapital,
		TradingDays:  tradingDays,
		TotalTrades:  result.TotalTrades(),
	}

	m.AnnualizedReturn = annualize(m.TotalReturn, tradingDays)
	m.MaxDrawdown = maxDrawdown(result.EquityCurve)

	if len(daily) >= 2 {
		std, err := stats.StandardDeviationSample(daily)
		if err != nil {
			return nil, fmt.Errorf("daily volatility: %w", err)
		}
		m.Volatility = std * math.Sqrt(tradingDaysPerYear)
	}
	if len(daily) > 0 {
		v, c, err := tailRisk(daily)
		if err != nil {
			return nil, fmt.Errorf("tail risk: %w", err)
		}
		m.VaR95 = v
		m.CVaR95 = c
	}

	if m.Volatility > 0 {
		m.SharpeRatio = (m.AnnualizedReturn - a.riskFreeRate) / m.Volatility
	}
	if dd := downsideDeviation(daily); dd > 0 {
		m.SortinoRatio = (m.AnnualizedReturn - a.riskFreeRate) / dd
	}
	if m.MaxDrawdown < 0 {
		m.CalmarRatio = m.AnnualizedReturn / math.Abs(m.MaxDrawdown)
	}

	fillTradeStats(m, result.Trades)
	fillMonthlyStats(m, result.EquityCurve, daily)

	return m, nil
}

// annualize converts a total return over n trading days to an annual rate.
func annualize(totalReturn float64, tradingDays int) float64 {
	if tradingDays <= 0 || totalReturn <= -1 {
		return 0
	}
	return math.Pow(1+totalReturn, tradingDaysPerYear/float64(tradingDays)) - 1
}

// maxDrawdown returns the deepest peak-to-trough decline as a negative
// fraction, or 0 for a curve that never declines.
func maxDrawdown(curve []domain.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Value
	maxDD := 0.0
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (p.Value - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// tailRisk computes historical VaR (5th percentile of daily returns) and
// CVaR (mean of returns at or below VaR). Nearest-rank percentiles stay
// defined for short series where interpolation would run out of samples.
func tailRisk(daily []float64) (var95, cvar95 float64, err error) {
	if len(daily) == 1 {
		return daily[0], daily[0], nil
	}
	var95, err = stats.PercentileNearestRank(daily, 5)
	if err != nil {
		return 0, 0, err
	}
	var tail []float64
	for _, r := range daily {
		if r <= var95 {
			tail = append(tail, r)
		}
	}
	if len(tail) == 0 {
		return var95, var95, nil
	}
	cvar95, err = stats.Mean(tail)
	if err != nil {
		return 0, 0, err
	}
	return var95, cvar95, nil
}

// downsideDeviation is the annualized standard deviation of negative daily
// returns only, measured around zero.
func downsideDeviation(daily []float64) float64 {
	var sumSq float64
	var n int
	for _, r := range daily {
		if r < 0 {
			sumSq += r * r
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq/float64(n)) * math.Sqrt(tradingDaysPerYear)
}

func fillTradeStats(m *domain.PerformanceMetrics, trades []*domain.Trade) {
	if len(trades) == 0 {
		return
	}
	var wins, losses []float64
	var grossWin, grossLoss float64
	for _, t := range trades {
		ret := t.TotalReturn()
		if ret > 0 {
			wins = append(wins, ret)
			grossWin += ret
		} else {
			losses = append(losses, ret)
			grossLoss += -ret
		}
	}
	m.WinRate = float64(len(wins)) / float64(len(trades))
	if len(wins) > 0 {
		m.AverageWin, _ = stats.Mean(wins)
	}
	if len(losses) > 0 {
		m.AverageLoss, _ = stats.Mean(losses)
	}
	switch {
	case grossLoss > 0:
		m.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		m.ProfitFactor = math.Inf(1)
	}
}

// fillMonthlyStats compounds daily returns into calendar months and records
// the best/worst month and the share of positive months.
func fillMonthlyStats(m *domain.PerformanceMetrics, curve []domain.EquityPoint, daily []float64) {
	if len(daily) == 0 {
		return
	}
	type month struct {
		label  string
		growth float64
	}
	var months []month
	// daily[i] is the return from curve[i] to curve[i+1]; attribute it to
	// the month of the later point.
	for i, r := range daily {
		label := curve[i+1].Date.Format("2006-01")
		if len(months) == 0 || months[len(months)-1].label != label {
			months = append(months, month{label: label, growth: 1})
		}
		months[len(months)-1].growth *= 1 + r
	}

	positive := 0
	best, worst := months[0], months[0]
	for _, mo := range months {
		if mo.growth > 1 {
			positive++
		}
		if mo.growth > best.growth {
			best = mo
		}
		if mo.growth < worst.growth {
			worst = mo
		}
	}
	m.BestMonth = best.growth - 1
	m.BestMonthLabel = best.label
	m.WorstMonth = worst.growth - 1
	m.WorstMonthLabel = worst.label
	m.PositiveMonthsPct = float64(positive) / float64(len(months))
}

// ComparisonRow pairs a result name with its computed metrics.
type ComparisonRow struct {
	Name    string
	Metrics *domain.PerformanceMetrics
}

// Comparison holds metric rows for several results, sorted by name.
type Comparison struct {
	Rows []ComparisonRow
}

// Compare analyzes every result in the map and returns rows in name order.
func (a *Analyzer) Compare(resultsByName map[string]*domain.BacktestResult) (*Comparison, error) {
	names := make([]string, 0, len(resultsByName))
	for name := range resultsByName {
		names = append(names, name)
	}
	sort.Strings(names)

	cmp := &Comparison{Rows: make([]ComparisonRow, 0, len(names))}
	for _, name := range names {
		m, err := a.Analyze(resultsByName[name])
		if err != nil {
			return nil, fmt.Errorf("analyze %q: %w", name, err)
		}
		cmp.Rows = append(cmp.Rows, ComparisonRow{Name: name, Metrics: m})
	}
	return cmp, nil
}
