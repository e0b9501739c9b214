package metrics

import (
	"time"

	"dividend-strategy-lab/internal/domain"
)

// AnalyzeDrawdowns scans the equity curve for drawdown episodes deeper than
// 1% and summarizes them. An episode opens when equity drops below the
// running peak, closes when the peak is regained, and only counts if its
// trough breached the threshold.
func (a *Analyzer) AnalyzeDrawdowns(result *domain.BacktestResult) (*domain.DrawdownAnalysis, error) {
	if result == nil || len(result.EquityCurve) == 0 {
		return nil, ErrEmptyResult
	}

	curve := result.EquityCurve
	var episodes []domain.DrawdownEpisode
	peak := curve[0].Value

	var open bool
	var cur domain.DrawdownEpisode
	for _, p := range curve {
		switch {
		case p.Value >= peak:
			if open {
				cur.RecoveryDate = p.Date
				cur.Recovered = true
				cur.DurationDays = daysBetween(cur.StartDate, p.Date)
				if cur.Depth <= drawdownThreshold {
					episodes = append(episodes, cur)
				}
				open = false
			}
			peak = p.Value
		default:
			dd := (p.Value - peak) / peak
			if !open {
				open = true
				cur = domain.DrawdownEpisode{StartDate: p.Date, TroughDate: p.Date, Depth: dd}
			}
			if dd < cur.Depth {
				cur.Depth = dd
				cur.TroughDate = p.Date
			}
		}
	}
	if open {
		// Series ended underwater: episode never recovered.
		cur.DurationDays = daysBetween(cur.StartDate, curve[len(curve)-1].Date)
		if cur.Depth <= drawdownThreshold {
			episodes = append(episodes, cur)
		}
	}

	analysis := &domain.DrawdownAnalysis{
		MaxDrawdown:  maxDrawdown(curve),
		EpisodeCount: len(episodes),
	}
	if len(episodes) == 0 {
		return analysis, nil
	}

	var totalDuration int
	deepest := &episodes[0]
	longest := &episodes[0]
	for i := range episodes {
		ep := &episodes[i]
		totalDuration += ep.DurationDays
		if ep.Depth < deepest.Depth {
			deepest = ep
		}
		if ep.DurationDays > longest.DurationDays {
			longest = ep
		}
	}
	analysis.AvgDurationDays = float64(totalDuration) / float64(len(episodes))
	analysis.MaxStartDate = deepest.StartDate
	analysis.MaxTroughDate = deepest.TroughDate
	analysis.MaxRecoveryDate = deepest.RecoveryDate
	analysis.MaxRecovered = deepest.Recovered
	lp := *longest
	analysis.LongestEpisode = &lp
	return analysis, nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}
