// Package montecarlo estimates the outcome distribution of a strategy by
// rerunning its backtest over many resampled price series.
package montecarlo

import (
	"errors"
	"math"
	"math/rand"

	"github.com/montanaflynn/stats"

	"dividend-strategy-lab/internal/domain"
)

// ErrSeriesTooShort is returned when the source series cannot seed a
// resampler (fewer than two bars means no daily returns to draw from).
var ErrSeriesTooShort = errors.New("montecarlo: series too short to resample")

// errDegeneratePath marks a synthetic series unusable by the engine.
var errDegeneratePath = errors.New("montecarlo: resampled path produced non-positive price")

// resampleBootstrap draws daily returns i.i.d. with replacement and
// rebuilds a price path from the original starting close. Open/high/low
// keep the drawn source day's shape relative to its close, and the known
// dividend amounts are re-scattered onto uniformly random dates so
// dividend-timing strategies see varied ex-dividend placement.
func resampleBootstrap(bars []domain.Bar, rng *rand.Rand) ([]domain.Bar, error) {
	if len(bars) < 2 {
		return nil, ErrSeriesTooShort
	}
	picks := make([]int, len(bars)-1)
	for i := range picks {
		picks[i] = 1 + rng.Intn(len(bars)-1)
	}
	return rebuildFromPicks(bars, picks, rng)
}

// resampleBlockBootstrap draws contiguous blocks of blockSize return days,
// concatenated until the path reaches the source length, preserving
// short-horizon autocorrelation.
func resampleBlockBootstrap(bars []domain.Bar, blockSize int, rng *rand.Rand) ([]domain.Bar, error) {
	if len(bars) < 2 {
		return nil, ErrSeriesTooShort
	}
	if blockSize < 1 {
		blockSize = 1
	}
	need := len(bars) - 1
	picks := make([]int, 0, need+blockSize)
	for len(picks) < need {
		start := 1 + rng.Intn(len(bars)-1)
		for b := 0; b < blockSize && len(picks) < need; b++ {
			idx := start + b
			if idx >= len(bars) {
				break
			}
			picks = append(picks, idx)
		}
	}
	return rebuildFromPicks(bars, picks, rng)
}

// resampleRandomWalk fits Normal(mu, sigma) to the historical daily
// returns and generates a fresh parametric path. Dividends are dropped:
// this mode stresses price action alone.
func resampleRandomWalk(bars []domain.Bar, rng *rand.Rand) ([]domain.Bar, error) {
	if len(bars) < 2 {
		return nil, ErrSeriesTooShort
	}
	returns := dailyCloseReturns(bars)
	mu, err := stats.Mean(returns)
	if err != nil {
		return nil, err
	}
	sigma := 0.0
	if len(returns) >= 2 {
		sigma, err = stats.StandardDeviationSample(returns)
		if err != nil {
			return nil, err
		}
	}

	out := make([]domain.Bar, len(bars))
	out[0] = bars[0]
	out[0].Dividend = 0
	prev := bars[0].Close
	for i := 1; i < len(bars); i++ {
		shock := mu + sigma*rng.NormFloat64()
		closePx := prev * (1 + shock)
		if closePx <= 0 {
			return nil, errDegeneratePath
		}
		out[i] = domain.Bar{
			Date:   bars[i].Date,
			Open:   prev,
			High:   math.Max(prev, closePx),
			Low:    math.Min(prev, closePx),
			Close:  closePx,
			Volume: bars[i].Volume,
		}
		prev = closePx
	}
	return out, nil
}

// rebuildFromPicks reconstructs a bar series where synthetic day i takes
// the return and intraday shape of source day picks[i-1]. Day 0 keeps the
// original bar except for dividends, which are re-scattered.
func rebuildFromPicks(bars []domain.Bar, picks []int, rng *rand.Rand) ([]domain.Bar, error) {
	out := make([]domain.Bar, len(bars))
	out[0] = bars[0]
	out[0].Dividend = 0

	prev := bars[0].Close
	for i := 1; i < len(bars); i++ {
		src := bars[picks[i-1]]
		srcPrev := bars[picks[i-1]-1]
		ret := 0.0
		if srcPrev.Close > 0 {
			ret = src.Close/srcPrev.Close - 1
		}
		closePx := prev * (1 + ret)
		if closePx <= 0 {
			return nil, errDegeneratePath
		}
		shape := 1.0
		if src.Close > 0 {
			shape = closePx / src.Close
		}
		out[i] = domain.Bar{
			Date:   bars[i].Date,
			Open:   src.Open * shape,
			High:   src.High * shape,
			Low:    src.Low * shape,
			Close:  closePx,
			Volume: src.Volume,
		}
		prev = closePx
	}

	// Preserve total dividend income but not its timing.
	for _, b := range bars {
		if b.Dividend > 0 {
			out[rng.Intn(len(out))].Dividend += b.Dividend
		}
	}
	return out, nil
}

func dailyCloseReturns(bars []domain.Bar) []float64 {
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		if bars[i-1].Close > 0 {
			out = append(out, bars[i].Close/bars[i-1].Close-1)
		} else {
			out = append(out, 0)
		}
	}
	return out
}
