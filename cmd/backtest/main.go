// Package main provides the single-instrument backtest entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"dividend-strategy-lab/internal/backtest"
	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/metrics"
	"dividend-strategy-lab/internal/storage"
	chstore "dividend-strategy-lab/internal/storage/clickhouse"
	"dividend-strategy-lab/internal/storage/csvload"
	"dividend-strategy-lab/internal/storage/memory"
	pgstore "dividend-strategy-lab/internal/storage/postgres"
	"dividend-strategy-lab/internal/strategy"
)

func main() {
	// Parse flags
	symbol := flag.String("symbol", "", "Instrument symbol to backtest (required)")
	strategyType := flag.String("strategy", "", "Strategy: BUY_AND_HOLD, DIVIDEND_CAPTURE, CUSTOM_DIVIDEND_CAPTURE (required)")

	// Strategy parameters
	entryDaysBefore := flag.Int("entry-days-before", 3, "Trading days before ex-date to enter (DIVIDEND_CAPTURE)")
	exitDaysAfter := flag.Int("exit-days-after", 2, "Trading days after ex-date to exit")

	// Run parameters
	initialCapital := flag.Float64("initial-capital", 100000, "Initial capital")
	costRate := flag.Float64("cost-rate", 0, "Per-side transaction cost rate")
	riskFreeRate := flag.Float64("risk-free-rate", 0, "Annualized risk-free rate for Sharpe")

	// Data source
	csvPath := flag.String("csv", "", "CSV file with bar history (loads into memory)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (bar history)")

	// Persistence
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (trades and summaries)")
	persistResult := flag.Bool("persist", false, "Persist trades and summary to PostgreSQL")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Validate required flags
	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	if *strategyType == "" {
		logger.Fatal("--strategy is required")
	}
	if *csvPath == "" && *clickhouseDSN == "" {
		logger.Fatal("one of --csv or --clickhouse-dsn is required")
	}
	if *persistResult && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required with --persist")
	}

	*strategyType = strings.ToUpper(*strategyType)
	strat, err := strategy.FromConfig(strategyConfig(*strategyType, *entryDaysBefore, *exitDaysAfter))
	if err != nil {
		logger.Fatalf("build strategy: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Load bars
	var barStore storage.BarStore
	if *csvPath != "" {
		mem := memory.NewBarStore()
		n, err := csvload.LoadIntoStore(ctx, mem, *symbol, *csvPath)
		if err != nil {
			logger.Fatalf("load csv: %v", err)
		}
		logger.Printf("Loaded %d bars from %s", n, *csvPath)
		barStore = mem
	} else {
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()
		barStore = chstore.NewBarStore(conn)
	}

	bars, err := barStore.GetBySymbol(ctx, *symbol)
	if err != nil {
		logger.Fatalf("load bars for %s: %v", *symbol, err)
	}

	// Run backtest
	logger.Printf("Running backtest: symbol=%s strategy=%s bars=%d", *symbol, strat.Name(), len(bars))

	engine := backtest.NewEngine(*costRate)
	result, err := engine.Run(ctx, strat, bars, *symbol, *initialCapital)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	analyzer := metrics.NewAnalyzer(*riskFreeRate)
	perf, err := analyzer.Analyze(result)
	if err != nil {
		logger.Fatalf("analyze failed: %v", err)
	}

	// Persist
	if *persistResult {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if len(result.Trades) > 0 {
			if err := pgstore.NewTradeStore(pool).InsertBulk(ctx, result.StrategyName, result.Trades); err != nil {
				logger.Fatalf("persist trades: %v", err)
			}
		}
		if err := pgstore.NewSummaryStore(pool).Upsert(ctx, summaryFrom(result, perf)); err != nil {
			logger.Fatalf("persist summary: %v", err)
		}
		logger.Printf("Persisted %d trades and summary", len(result.Trades))
	}

	// Output result
	if *outputJSON {
		output, _ := json.MarshalIndent(perf, "", "  ")
		fmt.Println(string(output))
	} else {
		printPerformance(result, perf)
	}
}

// strategyConfig builds a StrategyConfig from CLI flags.
func strategyConfig(strategyType string, entryDaysBefore, exitDaysAfter int) domain.StrategyConfig {
	cfg := domain.StrategyConfig{StrategyType: strategyType}
	switch strategyType {
	case domain.StrategyTypeDividendCapture:
		cfg.EntryDaysBefore = &entryDaysBefore
		cfg.ExitDaysAfter = &exitDaysAfter
	case domain.StrategyTypeCustomDividendCapture:
		cfg.ExitDaysAfter = &exitDaysAfter
	}
	return cfg
}

func summaryFrom(res *domain.BacktestResult, perf *domain.PerformanceMetrics) *domain.BacktestSummary {
	return &domain.BacktestSummary{
		Symbol:           res.Symbol,
		StrategyName:     res.StrategyName,
		StartDate:        res.StartDate,
		EndDate:          res.EndDate,
		InitialCapital:   res.InitialCapital,
		FinalCapital:     res.FinalCapital,
		TotalReturn:      perf.TotalReturn,
		AnnualizedReturn: perf.AnnualizedReturn,
		Volatility:       perf.Volatility,
		SharpeRatio:      perf.SharpeRatio,
		MaxDrawdown:      perf.MaxDrawdown,
		TotalTrades:      perf.TotalTrades,
		WinRate:          perf.WinRate,
	}
}

// printPerformance outputs a human-readable performance summary.
func printPerformance(res *domain.BacktestResult, p *domain.PerformanceMetrics) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Symbol:             %s\n", p.Symbol)
	fmt.Printf("Strategy:           %s\n", p.StrategyName)
	fmt.Printf("Period:             %s to %s (%d trading days)\n",
		res.StartDate.Format("2006-01-02"), res.EndDate.Format("2006-01-02"), p.TradingDays)
	fmt.Println()

	fmt.Println("Returns:")
	fmt.Printf("  Total Return:     %.2f%% ($%.2f)\n", p.TotalReturn*100, p.DollarReturn)
	fmt.Printf("  Annualized:       %.2f%%\n", p.AnnualizedReturn*100)
	fmt.Printf("  Final Capital:    $%.2f\n", res.FinalCapital)
	fmt.Println()

	fmt.Println("Risk:")
	fmt.Printf("  Volatility:       %.4f\n", p.Volatility)
	fmt.Printf("  Max Drawdown:     %.2f%%\n", p.MaxDrawdown*100)
	fmt.Printf("  VaR 95:           %.4f\n", p.VaR95)
	fmt.Printf("  Sharpe:           %.2f\n", p.SharpeRatio)
	fmt.Printf("  Sortino:          %.2f\n", p.SortinoRatio)
	fmt.Printf("  Calmar:           %.2f\n", p.CalmarRatio)
	fmt.Println()

	fmt.Println("Trading:")
	fmt.Printf("  Trades:           %d\n", p.TotalTrades)
	fmt.Printf("  Win Rate:         %.2f%%\n", p.WinRate*100)
	fmt.Printf("  Avg Win:          $%.2f\n", p.AverageWin)
	fmt.Printf("  Avg Loss:         $%.2f\n", p.AverageLoss)
	fmt.Printf("  Profit Factor:    %.2f\n", p.ProfitFactor)
	if p.BestMonthLabel != "" {
		fmt.Printf("  Best Month:       %s (%.2f%%)\n", p.BestMonthLabel, p.BestMonth*100)
		fmt.Printf("  Worst Month:      %s (%.2f%%)\n", p.WorstMonthLabel, p.WorstMonth*100)
	}
}
