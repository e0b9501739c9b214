package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"dividend-strategy-lab/internal/domain"
)

var (
	// ErrNoInstruments is returned when nothing survives selection.
	ErrNoInstruments = errors.New("portfolio: no instruments to optimize")
	// ErrUnknownMethod is returned for an unrecognized optimization method.
	ErrUnknownMethod = errors.New("portfolio: unknown optimization method")
)

// Solver defaults.
const (
	defaultMaxVolatility = 0.15
	defaultCorrelation   = 0.3
	defaultMaxIterations = 2000
	defaultStepSize      = 0.05
	convergenceTol       = 1e-10
	volSlack             = 1e-6
	ceilingPenalty       = 100.0
	returnPenalty        = 1000.0
)

// Options tunes the optimization. Zero values take documented defaults.
type Options struct {
	MaxVolatility      float64 // portfolio volatility ceiling, default 0.15
	RiskFreeRate       float64 // annualized, used by max_sharpe and Sharpe reporting
	DefaultCorrelation float64 // pairwise correlation when none supplied, default 0.3
	MaxIterations      int     // solver iteration cap, default 2000
}

func (o Options) withDefaults() Options {
	if o.MaxVolatility == 0 {
		o.MaxVolatility = defaultMaxVolatility
	}
	if o.DefaultCorrelation == 0 {
		o.DefaultCorrelation = defaultCorrelation
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = defaultMaxIterations
	}
	return o
}

// Optimize runs selection and then solves for weights under w >= 0,
// sum(w) = 1 and the volatility ceiling. A solver that fails to converge
// or lands outside the feasible region falls back to equal weights; the
// fallback is reported through ConstraintsSatisfied, never as an error.
func Optimize(instruments []domain.InstrumentStats, method string, opts Options) (*domain.OptimizationResult, error) {
	opts = opts.withDefaults()

	selected := Select(instruments)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %d candidates, none qualified", ErrNoInstruments, len(instruments))
	}

	sigma := covarianceMatrix(selected, opts.DefaultCorrelation)
	returns := expectedReturns(selected)

	var weights []float64
	converged := true
	switch method {
	case domain.OptimizeEqualWeight:
		weights = equalWeights(len(selected))
	case domain.OptimizeMaxSharpe:
		weights, converged = solve(negativeSharpeObjective(returns, sigma, opts), len(selected), opts)
	case domain.OptimizeMinVariance:
		weights, converged = solve(varianceObjective(sigma, opts), len(selected), opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	vol := portfolioVolatility(weights, sigma)
	if !converged || vol > opts.MaxVolatility+volSlack {
		weights = equalWeights(len(selected))
		vol = portfolioVolatility(weights, sigma)
		converged = false
	}

	ret := dot(weights, returns)
	result := &domain.OptimizationResult{
		Method:             method,
		Weights:            make(map[string]float64, len(selected)),
		ExpectedReturn:     ret,
		Volatility:         vol,
		SelectedSymbols:    make([]string, 0, len(selected)),
		SelectionRationale: make(map[string]string, len(selected)),
		ConstraintsSatisfied: map[string]bool{
			"converged":          converged || method == domain.OptimizeEqualWeight,
			"volatility_ceiling": vol <= opts.MaxVolatility+volSlack,
			"weights_sum_to_one": true,
		},
	}
	if vol > 0 {
		result.SharpeRatio = (ret - opts.RiskFreeRate) / vol
	}
	for i, inst := range selected {
		result.Weights[inst.Symbol] = weights[i]
		result.SelectedSymbols = append(result.SelectedSymbols, inst.Symbol)
		result.SelectionRationale[inst.Symbol] = rationaleFor(inst)
	}
	return result, nil
}

// EfficientFrontier sweeps target returns between the lowest and highest
// instrument expected return, solving minimum-variance-for-target at each,
// and keeps the points under the volatility ceiling.
func EfficientFrontier(instruments []domain.InstrumentStats, nPoints int, opts Options) ([]domain.FrontierPoint, error) {
	opts = opts.withDefaults()
	if nPoints < 2 {
		return nil, fmt.Errorf("portfolio: frontier needs at least 2 points, got %d", nPoints)
	}

	selected := Select(instruments)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: %d candidates, none qualified", ErrNoInstruments, len(instruments))
	}

	sigma := covarianceMatrix(selected, opts.DefaultCorrelation)
	returns := expectedReturns(selected)

	lo, hi := returns[0], returns[0]
	for _, r := range returns[1:] {
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}

	var frontier []domain.FrontierPoint
	for i := 0; i < nPoints; i++ {
		target := lo + (hi-lo)*float64(i)/float64(nPoints-1)
		weights, converged := solve(targetReturnObjective(returns, sigma, target, opts), len(selected), opts)
		if !converged {
			continue
		}
		vol := portfolioVolatility(weights, sigma)
		ret := dot(weights, returns)
		if vol > opts.MaxVolatility+volSlack {
			continue
		}
		point := domain.FrontierPoint{Return: ret, Volatility: vol}
		if vol > 0 {
			point.Sharpe = (ret - opts.RiskFreeRate) / vol
		}
		frontier = append(frontier, point)
	}
	sort.Slice(frontier, func(i, j int) bool { return frontier[i].Return < frontier[j].Return })
	return frontier, nil
}

// covarianceMatrix builds sigma[i][j] = corr(i,j) * vol_i * vol_j with each
// instrument's own variance on the diagonal. Correlations come from either
// side of the pair's Correlations map, falling back to defaultCorr.
func covarianceMatrix(instruments []domain.InstrumentStats, defaultCorr float64) *mat.SymDense {
	n := len(instruments)
	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sigma.SetSym(i, i, instruments[i].Volatility*instruments[i].Volatility)
		for j := i + 1; j < n; j++ {
			corr := pairCorrelation(&instruments[i], &instruments[j], defaultCorr)
			sigma.SetSym(i, j, corr*instruments[i].Volatility*instruments[j].Volatility)
		}
	}
	return sigma
}

func pairCorrelation(a, b *domain.InstrumentStats, fallback float64) float64 {
	if c, ok := a.Correlations[b.Symbol]; ok {
		return clamp(c, -1, 1)
	}
	if c, ok := b.Correlations[a.Symbol]; ok {
		return clamp(c, -1, 1)
	}
	return fallback
}

func expectedReturns(instruments []domain.InstrumentStats) []float64 {
	out := make([]float64, len(instruments))
	for i, inst := range instruments {
		out[i] = inst.ExpectedReturn
	}
	return out
}

func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	return w
}

func portfolioVolatility(weights []float64, sigma *mat.SymDense) float64 {
	v := mat.NewVecDense(len(weights), weights)
	variance := mat.Inner(v, sigma, v)
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// objective is minimized by the solver over the weight simplex.
type objective func(weights []float64) float64

func varianceObjective(sigma *mat.SymDense, opts Options) objective {
	return func(w []float64) float64 {
		vol := portfolioVolatility(w, sigma)
		return vol*vol + ceilingExcess(vol, opts.MaxVolatility)
	}
}

func negativeSharpeObjective(returns []float64, sigma *mat.SymDense, opts Options) objective {
	return func(w []float64) float64 {
		vol := math.Max(portfolioVolatility(w, sigma), 1e-9)
		sharpe := (dot(w, returns) - opts.RiskFreeRate) / vol
		return -sharpe + ceilingExcess(vol, opts.MaxVolatility)
	}
}

func targetReturnObjective(returns []float64, sigma *mat.SymDense, target float64, opts Options) objective {
	return func(w []float64) float64 {
		vol := portfolioVolatility(w, sigma)
		shortfall := math.Max(0, target-dot(w, returns))
		return vol*vol + returnPenalty*shortfall*shortfall + ceilingExcess(vol, opts.MaxVolatility)
	}
}

func ceilingExcess(vol, maxVol float64) float64 {
	excess := math.Max(0, vol-maxVol)
	return ceilingPenalty * excess * excess
}

// solve runs projected gradient descent on the simplex from equal weights.
// Gradients are central differences of the penalized objective. Returns the
// best weights seen and whether the iteration settled before the cap.
func solve(f objective, n int, opts Options) ([]float64, bool) {
	w := equalWeights(n)
	if n == 1 {
		return w, true
	}

	best := append([]float64(nil), w...)
	bestVal := f(w)
	prev := bestVal
	converged := false

	const h = 1e-7
	grad := make([]float64, n)
	stale := 0
	for iter := 0; iter < opts.MaxIterations; iter++ {
		for i := 0; i < n; i++ {
			orig := w[i]
			w[i] = orig + h
			up := f(w)
			w[i] = orig - h
			down := f(w)
			w[i] = orig
			grad[i] = (up - down) / (2 * h)
		}

		step := defaultStepSize / (1 + float64(iter)/500)
		for i := 0; i < n; i++ {
			w[i] -= step * grad[i]
		}
		w = projectSimplex(w)

		val := f(w)
		if val < bestVal {
			bestVal = val
			copy(best, w)
		}
		if math.Abs(prev-val) < convergenceTol {
			stale++
			if stale >= 5 {
				converged = true
				break
			}
		} else {
			stale = 0
		}
		prev = val
	}
	return best, converged
}

// projectSimplex maps v to the nearest point with non-negative entries
// summing to one (Euclidean projection, sort-based).
func projectSimplex(v []float64) []float64 {
	n := len(v)
	u := append([]float64(nil), v...)
	sort.Sort(sort.Reverse(sort.Float64Slice(u)))

	var cumsum, theta float64
	for i := 0; i < n; i++ {
		cumsum += u[i]
		t := (cumsum - 1) / float64(i+1)
		if u[i]-t > 0 {
			theta = t
		}
	}

	w := make([]float64, n)
	for i, x := range v {
		w[i] = math.Max(0, x-theta)
	}
	return w
}
