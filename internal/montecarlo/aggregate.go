package montecarlo

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"dividend-strategy-lab/internal/domain"
)

// aggregate fills the distribution summary of result from its Returns.
// An empty distribution (every simulation excluded) leaves the summary
// zeroed rather than erroring; callers already see FailedSims.
func aggregate(result *domain.MonteCarloResult) error {
	n := len(result.Returns)
	result.Percentiles = make(map[int]float64, 5)
	if n == 0 {
		return nil
	}

	var err error
	if result.MeanReturn, err = stats.Mean(result.Returns); err != nil {
		return fmt.Errorf("montecarlo: mean: %w", err)
	}
	if result.MedianReturn, err = stats.Median(result.Returns); err != nil {
		return fmt.Errorf("montecarlo: median: %w", err)
	}
	if n >= 2 {
		if result.StdReturn, err = stats.StandardDeviationSample(result.Returns); err != nil {
			return fmt.Errorf("montecarlo: std: %w", err)
		}
	}

	for _, p := range []int{5, 25, 50, 75, 95} {
		v, err := stats.PercentileNearestRank(result.Returns, float64(p))
		if err != nil {
			return fmt.Errorf("montecarlo: percentile %d: %w", p, err)
		}
		result.Percentiles[p] = v
	}

	result.VaR95 = result.Percentiles[5]
	result.CVaR95 = meanAtOrBelow(result.Returns, result.VaR95)

	var profit, loss, negSum float64
	var negN int
	for _, r := range result.Returns {
		switch {
		case r > 0:
			profit++
		case r < 0:
			loss++
		}
		if r < 0 {
			negSum += r
			negN++
		}
	}
	result.ProbProfit = profit / float64(n)
	result.ProbLoss = loss / float64(n)
	if negN > 0 {
		result.ExpectedShortfall = negSum / float64(negN)
	}

	bounds := map[float64]*float64{
		99:   &result.BestCase,
		1:    &result.WorstCase,
		2.5:  &result.CI95Low,
		97.5: &result.CI95High,
	}
	for p, dst := range bounds {
		v, err := stats.PercentileNearestRank(result.Returns, p)
		if err != nil {
			return fmt.Errorf("montecarlo: percentile %v: %w", p, err)
		}
		*dst = v
	}
	return nil
}

func meanAtOrBelow(values []float64, threshold float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v <= threshold {
			sum += v
			n++
		}
	}
	if n == 0 {
		return threshold
	}
	return sum / float64(n)
}
