package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders strategy performance rows as CSV string.
func RenderCSV(rows []StrategyRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("symbol,strategy,total_return,annualized_return,volatility,")
	sb.WriteString("sharpe_ratio,sortino_ratio,max_drawdown,total_trades,win_rate,profit_factor\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%.6f,%.6f,%.6f,%.6f,%.6f,%.6f,%d,%.6f,%.6f\n",
			r.Symbol,
			r.Strategy,
			r.TotalReturn,
			r.AnnualizedReturn,
			r.Volatility,
			r.SharpeRatio,
			r.SortinoRatio,
			r.MaxDrawdown,
			r.TotalTrades,
			r.WinRate,
			r.ProfitFactor,
		))
	}

	return sb.String()
}

// RenderWeightsCSV renders the optimized allocation as CSV string.
func RenderWeightsCSV(section *OptimizationSection) string {
	var sb strings.Builder
	sb.WriteString("symbol,weight,rationale\n")
	if section == nil {
		return sb.String()
	}
	for _, w := range section.Weights {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%s\n", w.Symbol, w.Weight, w.Rationale))
	}
	return sb.String()
}
