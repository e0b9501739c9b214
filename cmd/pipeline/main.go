// Package main provides the batch pipeline entry point.
// Executes: bar loading → backtests → analysis → portfolio → reporting
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"dividend-strategy-lab/internal/config"
	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/montecarlo"
	"dividend-strategy-lab/internal/observability"
	"dividend-strategy-lab/internal/orchestrator"
	"dividend-strategy-lab/internal/portfolio"
	"dividend-strategy-lab/internal/reporting"
	"dividend-strategy-lab/internal/storage"
	chstore "dividend-strategy-lab/internal/storage/clickhouse"
	"dividend-strategy-lab/internal/storage/csvload"
	"dividend-strategy-lab/internal/storage/memory"
	pgstore "dividend-strategy-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "YAML pipeline configuration (required)")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated reports")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus /metrics listen address, empty disables")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[pipeline] ", log.LstdFlags)

	if *configPath == "" {
		logger.Fatal("--config is required")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling pipeline...", sig)
		cancel()
	}()

	// Serve Prometheus metrics
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		go func() {
			logger.Printf("Serving metrics on %s/metrics", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("metrics server: %v", err)
			}
		}()
	}

	// Build stores
	barStore, tradeStore, summaryStore, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer cleanup()

	// Load CSV-sourced instruments
	symbols := make([]string, 0, len(cfg.Instruments))
	for _, inst := range cfg.Instruments {
		symbols = append(symbols, inst.Symbol)
		if inst.CSVPath == "" {
			continue
		}
		n, err := csvload.LoadIntoStore(ctx, barStore, inst.Symbol, inst.CSVPath)
		if errors.Is(err, storage.ErrDuplicateKey) {
			logger.Printf("%s: bars already loaded", inst.Symbol)
			continue
		}
		if err != nil {
			logger.Fatalf("load %s: %v", inst.Symbol, err)
		}
		logger.Printf("%s: loaded %d bars from %s", inst.Symbol, n, inst.CSVPath)
	}

	// Optional Monte Carlo phase
	var sim *montecarlo.Simulator
	if cfg.MonteCarlo.Enabled {
		sim, err = montecarlo.NewSimulator(montecarlo.Options{
			NumSimulations: cfg.MonteCarlo.NumSimulations,
			Method:         cfg.MonteCarlo.Method,
			Seed:           cfg.MonteCarlo.Seed,
			BlockSize:      cfg.MonteCarlo.BlockSize,
			FailurePolicy:  cfg.MonteCarlo.FailurePolicy,
			RiskFreeRate:   cfg.RiskFreeRate,
		})
		if err != nil {
			logger.Fatalf("configure simulator: %v", err)
		}
	}

	// Run orchestrator
	fmt.Println("=== Strategy Evaluation Pipeline ===")
	orch, err := orchestrator.New(orchestrator.Options{
		BarStore:        barStore,
		TradeStore:      tradeStore,
		SummaryStore:    summaryStore,
		StrategyConfigs: cfg.DomainStrategies(),
		InitialCapital:  cfg.InitialCapital,
		CostRate:        cfg.CostRate,
		RiskFreeRate:    cfg.RiskFreeRate,
		OptimizeMethod:  cfg.Optimizer.Method,
		OptimizerOpts: portfolio.Options{
			MaxVolatility:      cfg.Optimizer.MaxVolatility,
			RiskFreeRate:       cfg.RiskFreeRate,
			DefaultCorrelation: cfg.Optimizer.DefaultCorrelation,
			MaxIterations:      cfg.Optimizer.MaxIterations,
		},
		Simulator:          sim,
		MonteCarloStrategy: domain.StrategyConfig{StrategyType: cfg.MonteCarlo.Strategy},
		Verbose:            *verbose,
	})
	if err != nil {
		logger.Fatalf("configure orchestrator: %v", err)
	}

	result, err := orch.Run(ctx, symbols)
	if err != nil {
		logger.Fatalf("pipeline failed: %v", err)
	}

	fmt.Printf("Pipeline completed: %d instruments, %d errors\n", len(result.Instruments), len(result.Errors))
	for _, e := range result.Errors {
		fmt.Printf("  - %s\n", e)
	}

	// Reporting
	report := reporting.NewGenerator().Generate(result)
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("create output dir: %v", err)
	}

	reportPath := filepath.Join(*outputDir, "REPORT.md")
	if err := os.WriteFile(reportPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatalf("write report: %v", err)
	}
	csvPath := filepath.Join(*outputDir, "strategy_performance.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.StrategyRows)), 0o644); err != nil {
		logger.Fatalf("write csv: %v", err)
	}
	weightsPath := filepath.Join(*outputDir, "portfolio_weights.csv")
	if err := os.WriteFile(weightsPath, []byte(reporting.RenderWeightsCSV(report.Optimization)), 0o644); err != nil {
		logger.Fatalf("write weights: %v", err)
	}
	observability.DefaultMetrics.ReportsGenerated.Inc()

	fmt.Println("\nGenerated:")
	fmt.Printf("  - %s\n", reportPath)
	fmt.Printf("  - %s\n", csvPath)
	fmt.Printf("  - %s\n", weightsPath)
}

// buildStores wires the configured backends: ClickHouse serves bar series,
// PostgreSQL serves trades and summaries, memory fills any gap.
func buildStores(ctx context.Context, cfg *config.Config) (storage.BarStore, storage.TradeStore, storage.SummaryStore, func(), error) {
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	var barStore storage.BarStore = memory.NewBarStore()
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return nil, nil, nil, cleanup, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })
		barStore = chstore.NewBarStore(conn)
	}

	var tradeStore storage.TradeStore = memory.NewTradeStore()
	var summaryStore storage.SummaryStore = memory.NewSummaryStore()
	if cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, cleanup, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		tradeStore = pgstore.NewTradeStore(pool)
		summaryStore = pgstore.NewSummaryStore(pool)
	}

	return barStore, tradeStore, summaryStore, cleanup, nil
}
