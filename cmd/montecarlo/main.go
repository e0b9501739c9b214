// Package main provides the Monte Carlo simulation entry point.
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
	"dividend-strategy-lab/internal/montecarlo"
	"dividend-strategy-lab/internal/storage"
	chstore "dividend-strategy-lab/internal/storage/clickhouse"
	"dividend-strategy-lab/internal/storage/csvload"
	"dividend-strategy-lab/internal/storage/memory"
	"dividend-strategy-lab/internal/strategy"
)

func main() {
	// Parse flags
	symbol := flag.String("symbol", "", "Instrument symbol to simulate (required)")
	strategyType := flag.String("strategy", domain.StrategyTypeBuyAndHold, "Strategy to run per simulation")
	entryDaysBefore := flag.Int("entry-days-before", 3, "Trading days before ex-date to enter (DIVIDEND_CAPTURE)")
	exitDaysAfter := flag.Int("exit-days-after", 2, "Trading days after ex-date to exit")

	// Simulation parameters
	numSims := flag.Int("sims", 1000, "Number of simulations")
	method := flag.String("method", domain.ResampleBootstrap, "Resampling: bootstrap, block_bootstrap, random_walk")
	seed := flag.Int64("seed", 0, "Base random seed; simulation i uses seed+i")
	blockSize := flag.Int("block-size", 5, "Block length for block_bootstrap")
	failurePolicy := flag.String("failure-policy", montecarlo.FailurePolicyExclude, "Failed simulation policy: exclude, zero")
	workers := flag.Int("workers", 0, "Worker goroutines, 0 = NumCPU-1")

	// Run parameters
	initialCapital := flag.Float64("initial-capital", 100000, "Initial capital")
	costRate := flag.Float64("cost-rate", 0, "Per-side transaction cost rate")
	riskFreeRate := flag.Float64("risk-free-rate", 0, "Annualized risk-free rate")

	// Data source
	csvPath := flag.String("csv", "", "CSV file with bar history (loads into memory)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (bar history)")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[montecarlo] ", log.LstdFlags)

	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	if *csvPath == "" && *clickhouseDSN == "" {
		logger.Fatal("one of --csv or --clickhouse-dsn is required")
	}

	*strategyType = strings.ToUpper(*strategyType)
	cfg := domain.StrategyConfig{StrategyType: *strategyType}
	switch *strategyType {
	case domain.StrategyTypeDividendCapture:
		cfg.EntryDaysBefore = entryDaysBefore
		cfg.ExitDaysAfter = exitDaysAfter
	case domain.StrategyTypeCustomDividendCapture:
		cfg.ExitDaysAfter = exitDaysAfter
	}
	strat, err := strategy.FromConfig(cfg)
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
		if _, err := csvload.LoadIntoStore(ctx, mem, *symbol, *csvPath); err != nil {
			logger.Fatalf("load csv: %v", err)
		}
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

	sim, err := montecarlo.NewSimulator(montecarlo.Options{
		Engine:         backtest.NewEngine(*costRate),
		NumSimulations: *numSims,
		Method:         strings.ToLower(*method),
		Seed:           *seed,
		BlockSize:      *blockSize,
		FailurePolicy:  strings.ToLower(*failurePolicy),
		Workers:        *workers,
		RiskFreeRate:   *riskFreeRate,
	})
	if err != nil {
		logger.Fatalf("configure simulator: %v", err)
	}

	logger.Printf("Running %d %s simulations: symbol=%s strategy=%s seed=%d",
		*numSims, *method, *symbol, strat.Name(), *seed)

	result, err := sim.Run(ctx, strat, bars, *symbol, *initialCapital)
	if err != nil {
		logger.Fatalf("simulation failed: %v", err)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		printDistribution(result)
	}
}

// printDistribution outputs a human-readable distribution summary.
func printDistribution(r *domain.MonteCarloResult) {
	fmt.Println()
	fmt.Println("=== Monte Carlo Result ===")
	fmt.Printf("Symbol:             %s\n", r.Symbol)
	fmt.Printf("Strategy:           %s\n", r.StrategyName)
	fmt.Printf("Method:             %s (seed %d)\n", r.Method, r.Seed)
	fmt.Printf("Simulations:        %d (%d failed)\n", r.NumSimulations, r.FailedSims)
	fmt.Println()

	fmt.Println("Return Distribution:")
	fmt.Printf("  Mean:             %.4f\n", r.MeanReturn)
	fmt.Printf("  Median:           %.4f\n", r.MedianReturn)
	fmt.Printf("  Std Dev:          %.4f\n", r.StdReturn)
	fmt.Printf("  P5 / P25:         %.4f / %.4f\n", r.Percentiles[5], r.Percentiles[25])
	fmt.Printf("  P75 / P95:        %.4f / %.4f\n", r.Percentiles[75], r.Percentiles[95])
	fmt.Println()

	fmt.Println("Risk:")
	fmt.Printf("  VaR 95:           %.4f\n", r.VaR95)
	fmt.Printf("  CVaR 95:          %.4f\n", r.CVaR95)
	fmt.Printf("  Prob Profit:      %.2f%%\n", r.ProbProfit*100)
	fmt.Printf("  Prob Loss:        %.2f%%\n", r.ProbLoss*100)
	fmt.Printf("  Best / Worst:     %.4f / %.4f\n", r.BestCase, r.WorstCase)
	fmt.Printf("  95%% CI:           [%.4f, %.4f]\n", r.CI95Low, r.CI95High)
}
