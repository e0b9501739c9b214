package reporting

import (
	"strings"
	"testing"
	"time"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/orchestrator"
)

func fixtureRun() *orchestrator.RunResult {
	return &orchestrator.RunResult{
		Instruments: []orchestrator.InstrumentOutcome{
			{
				Symbol: "VYM",
				Metrics: map[string]*domain.PerformanceMetrics{
					domain.StrategyTypeBuyAndHold: {
						StrategyName:     domain.StrategyTypeBuyAndHold,
						Symbol:           "VYM",
						TotalReturn:      0.12,
						AnnualizedReturn: 0.12,
						Volatility:       0.14,
						SharpeRatio:      0.85,
						MaxDrawdown:      -0.08,
						TotalTrades:      1,
						WinRate:          1.0,
					},
				},
				MonteCarlo: &domain.MonteCarloResult{
					Symbol:         "VYM",
					Method:         domain.ResampleBootstrap,
					NumSimulations: 100,
					MeanReturn:     0.11,
					MedianReturn:   0.10,
					VaR95:          -0.05,
					ProbProfit:     0.9,
				},
			},
			{
				Symbol: "SCHD",
				Metrics: map[string]*domain.PerformanceMetrics{
					domain.StrategyTypeDividendCapture: {
						StrategyName: domain.StrategyTypeDividendCapture,
						Symbol:       "SCHD",
						TotalReturn:  0.31,
						TotalTrades:  12,
						WinRate:      0.75,
					},
					domain.StrategyTypeBuyAndHold: {
						StrategyName: domain.StrategyTypeBuyAndHold,
						Symbol:       "SCHD",
						TotalReturn:  0.42,
						TotalTrades:  1,
					},
				},
			},
			{Symbol: "JEPI", SkipReason: orchestrator.SkipReasonNoBars},
		},
		Optimization: &domain.OptimizationResult{
			Method:          domain.OptimizeMaxSharpe,
			Weights:         map[string]float64{"SCHD": 0.6, "VYM": 0.4},
			ExpectedReturn:  0.10,
			Volatility:      0.12,
			SharpeRatio:     0.83,
			SelectedSymbols: []string{"SCHD", "VYM"},
			SelectionRationale: map[string]string{
				"SCHD": "Rule 1: high return, low volatility",
				"VYM":  "Rule 2: strong dividend capture",
			},
			ConstraintsSatisfied: map[string]bool{
				"converged":          true,
				"volatility_ceiling": true,
			},
		},
		Errors: []string{"montecarlo SCHD: context deadline exceeded"},
	}
}

func TestGenerate(t *testing.T) {
	fixed := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator().WithClock(func() time.Time { return fixed })

	report := gen.Generate(fixtureRun())

	if !report.GeneratedAt.Equal(fixed) {
		t.Errorf("GeneratedAt = %v, want %v", report.GeneratedAt, fixed)
	}
	if report.InstrumentCount != 3 {
		t.Errorf("InstrumentCount = %d, want 3", report.InstrumentCount)
	}
	if report.StrategyCount != 2 {
		t.Errorf("StrategyCount = %d, want 2", report.StrategyCount)
	}

	if len(report.StrategyRows) != 3 {
		t.Fatalf("StrategyRows = %d rows, want 3", len(report.StrategyRows))
	}
	// Sorted by symbol then strategy: SCHD/BH, SCHD/DC, VYM/BH.
	if report.StrategyRows[0].Symbol != "SCHD" || report.StrategyRows[2].Symbol != "VYM" {
		t.Errorf("rows not sorted by symbol: %+v", report.StrategyRows)
	}
	if report.StrategyRows[0].Strategy >= report.StrategyRows[1].Strategy {
		t.Errorf("rows not sorted by strategy within symbol: %q then %q",
			report.StrategyRows[0].Strategy, report.StrategyRows[1].Strategy)
	}

	if len(report.Skipped) != 1 || report.Skipped[0].Symbol != "JEPI" {
		t.Errorf("Skipped = %+v, want one JEPI row", report.Skipped)
	}
	if len(report.MonteCarloRows) != 1 || report.MonteCarloRows[0].Symbol != "VYM" {
		t.Errorf("MonteCarloRows = %+v, want one VYM row", report.MonteCarloRows)
	}

	if report.Optimization == nil {
		t.Fatal("Optimization section missing")
	}
	if len(report.Optimization.Weights) != 2 {
		t.Fatalf("Weights = %d rows, want 2", len(report.Optimization.Weights))
	}
	if report.Optimization.Weights[0].Symbol != "SCHD" {
		t.Errorf("weights not sorted by symbol: %+v", report.Optimization.Weights)
	}
	if report.Optimization.Weights[0].Rationale == "" {
		t.Error("weight row missing rationale")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	fixed := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	gen := NewGenerator().WithClock(func() time.Time { return fixed })

	first := RenderMarkdown(gen.Generate(fixtureRun()))
	second := RenderMarkdown(gen.Generate(fixtureRun()))
	if first != second {
		t.Error("identical runs rendered differently")
	}
}

func TestRenderMarkdown(t *testing.T) {
	gen := NewGenerator().WithClock(func() time.Time {
		return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	})
	md := RenderMarkdown(gen.Generate(fixtureRun()))

	for _, want := range []string{
		"# Strategy Evaluation Report",
		"## Strategy Performance",
		"| SCHD |",
		"## Skipped Instruments",
		"| JEPI | no_bars |",
		"## Monte Carlo Summary",
		"## Portfolio",
		"Method: `max_sharpe`",
		"- converged: OK",
		"## Errors",
		"context deadline exceeded",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestRenderMarkdownEmptyRun(t *testing.T) {
	md := RenderMarkdown(NewGenerator().Generate(&orchestrator.RunResult{}))

	for _, want := range []string{
		"No backtest results available.",
		"No Monte Carlo results available.",
		"No portfolio constructed.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "## Errors") {
		t.Error("empty run should not render an errors section")
	}
}

func TestRenderCSV(t *testing.T) {
	gen := NewGenerator()
	report := gen.Generate(fixtureRun())

	csv := RenderCSV(report.StrategyRows)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 4 {
		t.Fatalf("csv has %d lines, want header + 3 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "symbol,strategy,total_return") {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "SCHD,") {
		t.Errorf("first row should be SCHD, got %q", lines[1])
	}

	weights := RenderWeightsCSV(report.Optimization)
	if !strings.Contains(weights, "SCHD,0.600000,") {
		t.Errorf("weights csv missing SCHD row:\n%s", weights)
	}
}
