package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"dividend-strategy-lab/internal/domain"
)

// ReturnCorrelations computes the pairwise Pearson correlation of daily
// returns between results. Returns are matched by equity-curve date (inner
// join), so results covering different spans are compared only where they
// overlap. Pairs with fewer than two shared dates get correlation 0.
func ReturnCorrelations(resultsByName map[string]*domain.BacktestResult) (map[string]map[string]float64, error) {
	names := make([]string, 0, len(resultsByName))
	series := make(map[string]map[time.Time]float64, len(resultsByName))
	for name, res := range resultsByName {
		if res == nil || len(res.EquityCurve) == 0 {
			return nil, fmt.Errorf("result %q: %w", name, ErrEmptyResult)
		}
		names = append(names, name)
		series[name] = returnsByDate(res)
	}
	sort.Strings(names)

	out := make(map[string]map[string]float64, len(names))
	for _, name := range names {
		out[name] = map[string]float64{name: 1}
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			corr, err := pairCorrelation(series[names[i]], series[names[j]])
			if err != nil {
				return nil, fmt.Errorf("correlate %q/%q: %w", names[i], names[j], err)
			}
			out[names[i]][names[j]] = corr
			out[names[j]][names[i]] = corr
		}
	}
	return out, nil
}

// returnsByDate maps each equity-curve date to the return ending on it.
func returnsByDate(res *domain.BacktestResult) map[time.Time]float64 {
	daily := res.DailyReturns()
	m := make(map[time.Time]float64, len(daily))
	for i, r := range daily {
		m[res.EquityCurve[i+1].Date] = r
	}
	return m
}

func pairCorrelation(a, b map[time.Time]float64) (float64, error) {
	dates := make([]time.Time, 0, len(a))
	for d := range a {
		if _, ok := b[d]; ok {
			dates = append(dates, d)
		}
	}
	if len(dates) < 2 {
		return 0, nil
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	xs := make([]float64, len(dates))
	ys := make([]float64, len(dates))
	for i, d := range dates {
		xs[i] = a[d]
		ys[i] = b[d]
	}
	corr, err := stats.Correlation(xs, ys)
	if err != nil {
		return 0, err
	}
	return corr, nil
}
