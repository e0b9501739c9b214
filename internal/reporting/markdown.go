package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Strategy Evaluation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Instruments: %d | Strategies: %d\n\n", r.InstrumentCount, r.StrategyCount))

	// Strategy Performance
	sb.WriteString("## Strategy Performance\n\n")
	if len(r.StrategyRows) > 0 {
		sb.WriteString("| Symbol | Strategy | Return | Annualized | Vol | Sharpe | Sortino | MaxDD | Trades | WinRate | PF |\n")
		sb.WriteString("|--------|----------|--------|------------|-----|--------|---------|-------|--------|---------|----|\n")
		for _, row := range r.StrategyRows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.2f%% | %.2f%% | %.4f | %.2f | %.2f | %.2f%% | %d | %.2f%% | %.2f |\n",
				row.Symbol, row.Strategy,
				row.TotalReturn*100, row.AnnualizedReturn*100, row.Volatility,
				row.SharpeRatio, row.SortinoRatio, row.MaxDrawdown*100,
				row.TotalTrades, row.WinRate*100, row.ProfitFactor))
		}
	} else {
		sb.WriteString("No backtest results available.\n")
	}
	sb.WriteString("\n")

	// Skipped Instruments
	if len(r.Skipped) > 0 {
		sb.WriteString("## Skipped Instruments\n\n")
		sb.WriteString("| Symbol | Reason |\n")
		sb.WriteString("|--------|--------|\n")
		for _, row := range r.Skipped {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", row.Symbol, row.Reason))
		}
		sb.WriteString("\n")
	}

	// Monte Carlo
	sb.WriteString("## Monte Carlo Summary\n\n")
	if len(r.MonteCarloRows) > 0 {
		sb.WriteString("| Symbol | Method | Sims | Failed | Mean | Median | VaR95 | CVaR95 | P(Profit) | CI95 |\n")
		sb.WriteString("|--------|--------|------|--------|------|--------|-------|--------|-----------|------|\n")
		for _, row := range r.MonteCarloRows {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %.4f | %.4f | %.4f | %.4f | %.2f%% | [%.4f, %.4f] |\n",
				row.Symbol, row.Method, row.NumSimulations, row.FailedSims,
				row.MeanReturn, row.MedianReturn, row.VaR95, row.CVaR95,
				row.ProbProfit*100, row.CI95Low, row.CI95High))
		}
	} else {
		sb.WriteString("No Monte Carlo results available.\n")
	}
	sb.WriteString("\n")

	// Portfolio
	sb.WriteString("## Portfolio\n\n")
	if r.Optimization != nil {
		opt := r.Optimization
		sb.WriteString(fmt.Sprintf("Method: `%s` | Expected Return: %.2f%% | Volatility: %.4f | Sharpe: %.2f\n\n",
			opt.Method, opt.ExpectedReturn*100, opt.Volatility, opt.SharpeRatio))

		sb.WriteString("| Symbol | Weight | Rationale |\n")
		sb.WriteString("|--------|--------|-----------|\n")
		for _, w := range opt.Weights {
			sb.WriteString(fmt.Sprintf("| %s | %.2f%% | %s |\n", w.Symbol, w.Weight*100, w.Rationale))
		}
		sb.WriteString("\n")

		if len(opt.ConstraintsSatisfied) > 0 {
			sb.WriteString("### Constraints\n\n")
			names := make([]string, 0, len(opt.ConstraintsSatisfied))
			for name := range opt.ConstraintsSatisfied {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				status := "FAIL"
				if opt.ConstraintsSatisfied[name] {
					status = "OK"
				}
				sb.WriteString(fmt.Sprintf("- %s: %s\n", name, status))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No portfolio constructed.\n\n")
	}

	// Errors
	if len(r.Errors) > 0 {
		sb.WriteString("## Errors\n\n")
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", err))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
