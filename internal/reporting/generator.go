// Package reporting renders pipeline results as Markdown and CSV.
package reporting

import (
	"sort"
	"time"

	"dividend-strategy-lab/internal/orchestrator"
)

// Generator produces reports from pipeline run results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a complete report from one pipeline run.
func (g *Generator) Generate(run *orchestrator.RunResult) *Report {
	report := &Report{
		GeneratedAt:     g.now(),
		InstrumentCount: len(run.Instruments),
		Errors:          run.Errors,
	}

	strategySet := make(map[string]struct{})
	for _, inst := range run.Instruments {
		if inst.Skipped() {
			report.Skipped = append(report.Skipped, SkippedRow{
				Symbol: inst.Symbol,
				Reason: inst.SkipReason,
			})
			continue
		}

		for name, perf := range inst.Metrics {
			strategySet[name] = struct{}{}
			report.StrategyRows = append(report.StrategyRows, StrategyRow{
				Symbol:           inst.Symbol,
				Strategy:         name,
				TotalReturn:      perf.TotalReturn,
				AnnualizedReturn: perf.AnnualizedReturn,
				Volatility:       perf.Volatility,
				SharpeRatio:      perf.SharpeRatio,
				SortinoRatio:     perf.SortinoRatio,
				MaxDrawdown:      perf.MaxDrawdown,
				TotalTrades:      perf.TotalTrades,
				WinRate:          perf.WinRate,
				ProfitFactor:     perf.ProfitFactor,
			})
		}

		if mc := inst.MonteCarlo; mc != nil {
			report.MonteCarloRows = append(report.MonteCarloRows, MonteCarloRow{
				Symbol:         inst.Symbol,
				Method:         mc.Method,
				NumSimulations: mc.NumSimulations,
				FailedSims:     mc.FailedSims,
				MeanReturn:     mc.MeanReturn,
				MedianReturn:   mc.MedianReturn,
				VaR95:          mc.VaR95,
				CVaR95:         mc.CVaR95,
				ProbProfit:     mc.ProbProfit,
				CI95Low:        mc.CI95Low,
				CI95High:       mc.CI95High,
			})
		}
	}
	report.StrategyCount = len(strategySet)

	sort.Slice(report.StrategyRows, func(i, j int) bool {
		if report.StrategyRows[i].Symbol != report.StrategyRows[j].Symbol {
			return report.StrategyRows[i].Symbol < report.StrategyRows[j].Symbol
		}
		return report.StrategyRows[i].Strategy < report.StrategyRows[j].Strategy
	})
	sort.Slice(report.Skipped, func(i, j int) bool {
		return report.Skipped[i].Symbol < report.Skipped[j].Symbol
	})
	sort.Slice(report.MonteCarloRows, func(i, j int) bool {
		return report.MonteCarloRows[i].Symbol < report.MonteCarloRows[j].Symbol
	})

	if opt := run.Optimization; opt != nil {
		section := &OptimizationSection{
			Method:               opt.Method,
			ExpectedReturn:       opt.ExpectedReturn,
			Volatility:           opt.Volatility,
			SharpeRatio:          opt.SharpeRatio,
			ConstraintsSatisfied: opt.ConstraintsSatisfied,
		}
		for _, symbol := range opt.SelectedSymbols {
			section.Weights = append(section.Weights, WeightRow{
				Symbol:    symbol,
				Weight:    opt.Weights[symbol],
				Rationale: opt.SelectionRationale[symbol],
			})
		}
		sort.Slice(section.Weights, func(i, j int) bool {
			return section.Weights[i].Symbol < section.Weights[j].Symbol
		})
		report.Optimization = section
	}

	return report
}
