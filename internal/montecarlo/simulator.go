package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"dividend-strategy-lab/internal/backtest"
	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/metrics"
	"dividend-strategy-lab/internal/strategy"
)

// Failure policy identifiers. Exclude drops failed simulations from the
// aggregates (and counts them); zero records them as flat outcomes at the
// initial capital.
const (
	FailurePolicyExclude = "exclude"
	FailurePolicyZero    = "zero"
)

var (
	// ErrUnknownMethod is returned for an unrecognized resampling method.
	ErrUnknownMethod = errors.New("montecarlo: unknown resampling method")
	// ErrUnknownFailurePolicy is returned for an unrecognized failure policy.
	ErrUnknownFailurePolicy = errors.New("montecarlo: unknown failure policy")
	// ErrTooManyFailures is returned when over half the simulations fail,
	// at which point no policy can produce a trustworthy distribution.
	ErrTooManyFailures = errors.New("montecarlo: more than half of simulations failed")
)

// Simulator reruns a strategy backtest over resampled series. Safe for
// concurrent Run calls: all per-run state is local.
type Simulator struct {
	engine         *backtest.Engine
	analyzer       *metrics.Analyzer
	numSimulations int
	method         string
	seed           int64
	blockSize      int
	failurePolicy  string
	workers        int
}

// Options configures a Simulator. Zero values take documented defaults.
type Options struct {
	Engine         *backtest.Engine
	NumSimulations int     // default 1000
	Method         string  // default bootstrap
	Seed           int64   // base seed; simulation i uses Seed+i
	BlockSize      int     // block_bootstrap block length, default 5
	FailurePolicy  string  // default exclude
	Workers        int     // default NumCPU-1, minimum 1
	RiskFreeRate   float64 // for per-simulation Sharpe
}

// NewSimulator validates options and builds a Simulator.
func NewSimulator(opts Options) (*Simulator, error) {
	if opts.Engine == nil {
		opts.Engine = backtest.NewEngine(0)
	}
	if opts.NumSimulations == 0 {
		opts.NumSimulations = 1000
	}
	if opts.NumSimulations < 0 {
		return nil, fmt.Errorf("montecarlo: NumSimulations must be positive, got %d", opts.NumSimulations)
	}
	if opts.Method == "" {
		opts.Method = domain.ResampleBootstrap
	}
	switch opts.Method {
	case domain.ResampleBootstrap, domain.ResampleBlockBootstrap, domain.ResampleRandomWalk:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, opts.Method)
	}
	if opts.BlockSize == 0 {
		opts.BlockSize = 5
	}
	if opts.FailurePolicy == "" {
		opts.FailurePolicy = FailurePolicyExclude
	}
	if opts.FailurePolicy != FailurePolicyExclude && opts.FailurePolicy != FailurePolicyZero {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFailurePolicy, opts.FailurePolicy)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU() - 1
		if opts.Workers < 1 {
			opts.Workers = 1
		}
	}
	return &Simulator{
		engine:         opts.Engine,
		analyzer:       metrics.NewAnalyzer(opts.RiskFreeRate),
		numSimulations: opts.NumSimulations,
		method:         opts.Method,
		seed:           opts.Seed,
		blockSize:      opts.BlockSize,
		failurePolicy:  opts.FailurePolicy,
		workers:        opts.Workers,
	}, nil
}

// outcome is one simulation's recorded result, indexed by simulation.
type outcome struct {
	ok          bool
	totalReturn float64
	finalValue  float64
	maxDrawdown float64
	sharpe      float64
}

// Run executes the full simulation batch and aggregates the outcome
// distribution. Simulation i derives its RNG purely from seed+i, so the
// result is identical regardless of worker count or scheduling. Context
// cancellation is coarse: pending simulations stop being issued.
func (s *Simulator) Run(ctx context.Context, strat strategy.Strategy, bars []domain.Bar, symbol string, initialCapital float64) (*domain.MonteCarloResult, error) {
	if len(bars) < 2 {
		return nil, ErrSeriesTooShort
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("montecarlo: initial capital must be positive, got %v", initialCapital)
	}

	outcomes := make([]outcome, s.numSimulations)
	tasks := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				outcomes[idx] = s.runOne(ctx, idx, strat, bars, symbol, initialCapital)
			}
		}()
	}

	issued := s.numSimulations
	for i := 0; i < s.numSimulations; i++ {
		select {
		case <-ctx.Done():
			issued = i
		case tasks <- i:
			continue
		}
		break
	}
	close(tasks)
	wg.Wait()

	if issued < s.numSimulations {
		return nil, ctx.Err()
	}

	failed := 0
	for _, o := range outcomes {
		if !o.ok {
			failed++
		}
	}
	if failed*2 > s.numSimulations {
		return nil, fmt.Errorf("%w: %d of %d", ErrTooManyFailures, failed, s.numSimulations)
	}

	result := &domain.MonteCarloResult{
		StrategyName:   strat.Name(),
		Symbol:         symbol,
		Method:         s.method,
		Seed:           s.seed,
		NumSimulations: s.numSimulations,
	}
	for _, o := range outcomes {
		if !o.ok {
			switch s.failurePolicy {
			case FailurePolicyZero:
				o = outcome{finalValue: initialCapital}
			default:
				result.FailedSims++
				continue
			}
		}
		result.Returns = append(result.Returns, o.totalReturn)
		result.FinalValues = append(result.FinalValues, o.finalValue)
		result.MaxDrawdowns = append(result.MaxDrawdowns, o.maxDrawdown)
		result.SharpeRatios = append(result.SharpeRatios, o.sharpe)
	}
	if err := aggregate(result); err != nil {
		return nil, err
	}
	return result, nil
}

// runOne executes a single resample-and-backtest iteration.
func (s *Simulator) runOne(ctx context.Context, idx int, strat strategy.Strategy, bars []domain.Bar, symbol string, initialCapital float64) outcome {
	rng := rand.New(rand.NewSource(s.seed + int64(idx)))

	var synth []domain.Bar
	var err error
	switch s.method {
	case domain.ResampleBootstrap:
		synth, err = resampleBootstrap(bars, rng)
	case domain.ResampleBlockBootstrap:
		synth, err = resampleBlockBootstrap(bars, s.blockSize, rng)
	case domain.ResampleRandomWalk:
		synth, err = resampleRandomWalk(bars, rng)
	}
	if err != nil {
		return outcome{}
	}

	res, err := s.engine.Run(ctx, strat, synth, symbol, initialCapital)
	if err != nil {
		return outcome{}
	}
	m, err := s.analyzer.Analyze(res)
	if err != nil {
		return outcome{}
	}
	return outcome{
		ok:          true,
		totalReturn: m.TotalReturn,
		finalValue:  res.FinalCapital,
		maxDrawdown: m.MaxDrawdown,
		sharpe:      m.SharpeRatio,
	}
}
