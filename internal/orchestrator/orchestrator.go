// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: bar loading → backtests → analysis → portfolio construction
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dividend-strategy-lab/internal/backtest"
	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/metrics"
	"dividend-strategy-lab/internal/montecarlo"
	"dividend-strategy-lab/internal/observability"
	"dividend-strategy-lab/internal/portfolio"
	"dividend-strategy-lab/internal/storage"
	"dividend-strategy-lab/internal/strategy"
)

// Skip reasons reported in InstrumentOutcome.
const (
	SkipReasonNoBars       = "no_bars"
	SkipReasonDataTooShort = "data_insufficient"
)

// Orchestrator coordinates the batch pipeline over all configured
// instruments. Instruments whose data cannot support a backtest are
// skipped with a reason, never aborting the run.
type Orchestrator struct {
	barStore     storage.BarStore
	tradeStore   storage.TradeStore   // nil disables trade persistence
	summaryStore storage.SummaryStore // nil disables summary persistence

	engine   *backtest.Engine
	analyzer *metrics.Analyzer

	strategyConfigs []domain.StrategyConfig
	initialCapital  float64
	riskFreeRate    float64

	optimizeMethod string
	optimizerOpts  portfolio.Options

	simulator  *montecarlo.Simulator // nil disables Monte Carlo
	mcStrategy domain.StrategyConfig
	verbose    bool
}

// Options for creating an Orchestrator.
type Options struct {
	// Required
	BarStore        storage.BarStore
	StrategyConfigs []domain.StrategyConfig

	// Optional persistence
	TradeStore   storage.TradeStore
	SummaryStore storage.SummaryStore

	// Run parameters
	InitialCapital float64
	CostRate       float64
	RiskFreeRate   float64

	// Portfolio construction
	OptimizeMethod string
	OptimizerOpts  portfolio.Options

	// Monte Carlo; nil Simulator skips the phase
	Simulator          *montecarlo.Simulator
	MonteCarloStrategy domain.StrategyConfig

	Verbose bool
}

// New creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.BarStore == nil {
		return nil, errors.New("orchestrator: BarStore is required")
	}
	if len(opts.StrategyConfigs) == 0 {
		return nil, errors.New("orchestrator: at least one strategy config is required")
	}
	if opts.InitialCapital <= 0 {
		return nil, fmt.Errorf("orchestrator: initial capital must be positive, got %v", opts.InitialCapital)
	}
	method := opts.OptimizeMethod
	if method == "" {
		method = domain.OptimizeMaxSharpe
	}

	return &Orchestrator{
		barStore:        opts.BarStore,
		tradeStore:      opts.TradeStore,
		summaryStore:    opts.SummaryStore,
		engine:          backtest.NewEngine(opts.CostRate),
		analyzer:        metrics.NewAnalyzer(opts.RiskFreeRate),
		strategyConfigs: opts.StrategyConfigs,
		initialCapital:  opts.InitialCapital,
		riskFreeRate:    opts.RiskFreeRate,
		optimizeMethod:  method,
		optimizerOpts:   opts.OptimizerOpts,
		simulator:       opts.Simulator,
		mcStrategy:      opts.MonteCarloStrategy,
		verbose:         opts.Verbose,
	}, nil
}

// InstrumentOutcome is the per-instrument result of one pipeline run.
// Exactly one of SkipReason or the result maps is populated.
type InstrumentOutcome struct {
	Symbol     string
	SkipReason string

	// Keyed by strategy name (type plus parameters).
	Results       map[string]*domain.BacktestResult
	Metrics       map[string]*domain.PerformanceMetrics
	Stats         *domain.InstrumentStats
	MonteCarlo    *domain.MonteCarloResult
	MonteCarloErr string
}

// Skipped reports whether the instrument produced no results.
func (o *InstrumentOutcome) Skipped() bool { return o.SkipReason != "" }

// RunResult contains results from one orchestrator execution.
type RunResult struct {
	Instruments  []InstrumentOutcome
	Optimization *domain.OptimizationResult
	Errors       []string
}

// Run executes the full pipeline.
// Phases:
//  1. Load bars and backtest every (instrument, strategy) combination
//  2. Compute cross-instrument return correlations
//  3. Monte Carlo per instrument (when configured)
//  4. Portfolio selection and optimization
//  5. Persist trades and summaries (when stores are configured)
func (o *Orchestrator) Run(ctx context.Context, symbols []string) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{}

	o.log("Phase 1: Backtesting %d instruments...", len(symbols))
	phaseStart := time.Now()
	for _, symbol := range symbols {
		outcome, err := o.runInstrument(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("phase 1 (backtest %s) failed: %w", symbol, err)
		}
		if outcome.Skipped() {
			observability.RecordInstrumentSkipped(outcome.SkipReason)
			o.log("  %s: skipped (%s)", symbol, outcome.SkipReason)
		}
		result.Instruments = append(result.Instruments, *outcome)
	}
	observability.RecordPipelinePhase("backtest", time.Since(phaseStart).Seconds())

	o.log("Phase 2: Computing return correlations...")
	o.fillCorrelations(result.Instruments)

	if o.simulator != nil {
		o.log("Phase 3: Running Monte Carlo simulations...")
		phaseStart = time.Now()
		o.runMonteCarlo(ctx, result.Instruments, &result.Errors)
		observability.RecordPipelinePhase("montecarlo", time.Since(phaseStart).Seconds())
	}

	o.log("Phase 4: Optimizing portfolio...")
	stats := collectStats(result.Instruments)
	if len(stats) > 0 {
		opt, err := portfolio.Optimize(stats, o.optimizeMethod, o.optimizerOpts)
		switch {
		case errors.Is(err, portfolio.ErrNoInstruments):
			result.Errors = append(result.Errors, fmt.Sprintf("optimize: %v", err))
		case err != nil:
			return nil, fmt.Errorf("phase 4 (optimize) failed: %w", err)
		default:
			result.Optimization = opt
			observability.RecordOptimization(opt.Method, !opt.ConstraintsSatisfied["converged"])
		}
	}

	if o.tradeStore != nil || o.summaryStore != nil {
		o.log("Phase 5: Persisting results...")
		o.persist(ctx, result.Instruments, &result.Errors)
	}

	status := "success"
	if len(result.Errors) > 0 {
		status = "partial"
	}
	observability.RecordPipelineRun(status, float64(time.Now().Unix()))
	o.log("Pipeline completed in %v: %d instruments, %d errors",
		time.Since(start).Round(time.Millisecond), len(result.Instruments), len(result.Errors))

	return result, nil
}

// runInstrument backtests every configured strategy against one symbol.
// Unknown symbols and series too short to trade become skip outcomes.
func (o *Orchestrator) runInstrument(ctx context.Context, symbol string) (*InstrumentOutcome, error) {
	outcome := &InstrumentOutcome{Symbol: symbol}

	bars, err := o.barStore.GetBySymbol(ctx, symbol)
	if errors.Is(err, storage.ErrNotFound) {
		outcome.SkipReason = SkipReasonNoBars
		return outcome, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}

	outcome.Results = make(map[string]*domain.BacktestResult, len(o.strategyConfigs))
	outcome.Metrics = make(map[string]*domain.PerformanceMetrics, len(o.strategyConfigs))
	stats := &domain.InstrumentStats{
		Symbol:          symbol,
		StrategyReturns: make(map[string]float64, len(o.strategyConfigs)),
		ExDividendDay:   dominantDividendWeekday(bars),
	}

	for _, cfg := range o.strategyConfigs {
		strat, err := strategy.FromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("build strategy %s: %w", cfg.StrategyType, err)
		}

		runStart := time.Now()
		res, err := o.engine.Run(ctx, strat, bars, symbol, o.initialCapital)
		observability.RecordBacktest(cfg.StrategyType, time.Since(runStart).Seconds(), err)
		if errors.Is(err, backtest.ErrNoData) {
			outcome.SkipReason = SkipReasonDataTooShort
			outcome.Results, outcome.Metrics = nil, nil
			return outcome, nil
		}
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", strat.Name(), err)
		}
		observability.RecordTradesClosed(len(res.Trades))

		perf, err := o.analyzer.Analyze(res)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", strat.Name(), err)
		}

		outcome.Results[res.StrategyName] = res
		outcome.Metrics[res.StrategyName] = perf
		stats.StrategyReturns[cfg.StrategyType] = perf.TotalReturn

		// Buy-and-hold characterizes the instrument itself.
		if cfg.StrategyType == domain.StrategyTypeBuyAndHold {
			stats.ExpectedReturn = perf.AnnualizedReturn
			stats.Volatility = perf.Volatility
		}
	}

	outcome.Stats = stats
	return outcome, nil
}

// fillCorrelations computes pairwise buy-and-hold return correlations and
// attaches them to each instrument's stats.
func (o *Orchestrator) fillCorrelations(instruments []InstrumentOutcome) {
	buyHold := make(map[string]*domain.BacktestResult)
	for _, inst := range instruments {
		if inst.Skipped() {
			continue
		}
		if res, ok := inst.Results[domain.StrategyTypeBuyAndHold]; ok {
			buyHold[inst.Symbol] = res
		}
	}
	if len(buyHold) < 2 {
		return
	}

	corr, err := metrics.ReturnCorrelations(buyHold)
	if err != nil {
		return
	}
	for i := range instruments {
		if instruments[i].Stats == nil {
			continue
		}
		if m, ok := corr[instruments[i].Symbol]; ok {
			instruments[i].Stats.Correlations = m
		}
	}
}

// runMonteCarlo simulates the configured strategy for each non-skipped
// instrument. Per-instrument failures become run errors, not aborts.
func (o *Orchestrator) runMonteCarlo(ctx context.Context, instruments []InstrumentOutcome, errs *[]string) {
	cfg := o.mcStrategy
	if cfg.StrategyType == "" {
		cfg.StrategyType = domain.StrategyTypeBuyAndHold
	}
	strat, err := strategy.FromConfig(cfg)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("montecarlo strategy: %v", err))
		return
	}

	for i := range instruments {
		inst := &instruments[i]
		if inst.Skipped() {
			continue
		}
		bars, err := o.barStore.GetBySymbol(ctx, inst.Symbol)
		if err != nil {
			inst.MonteCarloErr = err.Error()
			continue
		}

		runStart := time.Now()
		mc, err := o.simulator.Run(ctx, strat, bars, inst.Symbol, o.initialCapital)
		if err != nil {
			inst.MonteCarloErr = err.Error()
			*errs = append(*errs, fmt.Sprintf("montecarlo %s: %v", inst.Symbol, err))
			continue
		}
		observability.RecordSimulationRun(mc.NumSimulations-mc.FailedSims, mc.FailedSims, time.Since(runStart).Seconds())
		inst.MonteCarlo = mc
	}
}

// persist writes trades and summaries for every non-skipped instrument.
// Duplicate trade batches are tolerated so re-runs do not fail.
func (o *Orchestrator) persist(ctx context.Context, instruments []InstrumentOutcome, errs *[]string) {
	for _, inst := range instruments {
		if inst.Skipped() {
			continue
		}
		for name, res := range inst.Results {
			if o.tradeStore != nil && len(res.Trades) > 0 {
				if err := o.tradeStore.InsertBulk(ctx, name, res.Trades); err != nil &&
					!errors.Is(err, storage.ErrDuplicateKey) {
					*errs = append(*errs, fmt.Sprintf("persist trades %s/%s: %v", inst.Symbol, name, err))
				}
			}
			if o.summaryStore != nil {
				summary := buildSummary(res, inst.Metrics[name])
				if err := o.summaryStore.Upsert(ctx, summary); err != nil {
					*errs = append(*errs, fmt.Sprintf("persist summary %s/%s: %v", inst.Symbol, name, err))
				}
			}
		}
	}
}

func buildSummary(res *domain.BacktestResult, perf *domain.PerformanceMetrics) *domain.BacktestSummary {
	s := &domain.BacktestSummary{
		Symbol:         res.Symbol,
		StrategyName:   res.StrategyName,
		StartDate:      res.StartDate,
		EndDate:        res.EndDate,
		InitialCapital: res.InitialCapital,
		FinalCapital:   res.FinalCapital,
		TotalReturn:    res.TotalReturnPct(),
	}
	if perf != nil {
		s.AnnualizedReturn = perf.AnnualizedReturn
		s.Volatility = perf.Volatility
		s.SharpeRatio = perf.SharpeRatio
		s.MaxDrawdown = perf.MaxDrawdown
		s.TotalTrades = perf.TotalTrades
		s.WinRate = perf.WinRate
	}
	return s
}

// collectStats gathers the stats of every instrument that produced results.
func collectStats(instruments []InstrumentOutcome) []domain.InstrumentStats {
	var stats []domain.InstrumentStats
	for _, inst := range instruments {
		if inst.Stats != nil {
			stats = append(stats, *inst.Stats)
		}
	}
	return stats
}

// dominantDividendWeekday returns the most frequent weekday among dividend
// bars, empty when the series pays no dividends. Ties resolve to the
// earlier weekday.
func dominantDividendWeekday(bars []domain.Bar) string {
	var counts [7]int
	paying := false
	for _, b := range bars {
		if b.Dividend > 0 {
			counts[int(b.Date.Weekday())]++
			paying = true
		}
	}
	if !paying {
		return ""
	}
	best := 0
	for day := 1; day < 7; day++ {
		if counts[day] > counts[best] {
			best = day
		}
	}
	return time.Weekday(best).String()
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
