// Package portfolio selects candidate instruments by qualification rules
// and allocates weights via constrained mean-variance optimization.
package portfolio

import (
	"sort"

	"dividend-strategy-lab/internal/domain"
)

// Selection rule thresholds, fractional.
const (
	rule1MinReturn     = 0.40
	rule1MaxVolatility = 0.40
	rule2MinReturn     = 0.30
	rule2MaxVolatility = 0.80
)

// Rationale strings recorded per selected instrument.
const (
	rationaleRule1 = "Rule 1: high return, low volatility"
	rationaleRule2 = "Rule 2: strong dividend capture"
)

// Select applies both qualification rules to every instrument and returns
// the surviving set, sorted by symbol. Rule 1 admits high total return at
// moderate volatility; Rule 2 admits strong dividend-capture returns at
// higher volatility. Instruments admitted only by Rule 2 compete for one
// slot per ex-dividend weekday: within each weekday the highest
// dividend-capture return wins. Rule 1 instruments are always kept.
func Select(instruments []domain.InstrumentStats) []domain.InstrumentStats {
	var rule1 []domain.InstrumentStats
	rule2Only := make(map[string]domain.InstrumentStats)

	for _, inst := range instruments {
		best := inst.BuyHoldReturn()
		if dc := inst.DividendCaptureReturn(); dc > best {
			best = dc
		}
		inst.QualifiesRule1 = best > rule1MinReturn && inst.Volatility < rule1MaxVolatility
		inst.QualifiesRule2 = inst.DividendCaptureReturn() > rule2MinReturn && inst.Volatility < rule2MaxVolatility

		switch {
		case inst.QualifiesRule1:
			rule1 = append(rule1, inst)
		case inst.QualifiesRule2:
			cur, seen := rule2Only[inst.ExDividendDay]
			if !seen || inst.DividendCaptureReturn() > cur.DividendCaptureReturn() {
				rule2Only[inst.ExDividendDay] = inst
			}
		}
	}

	selected := rule1
	for _, inst := range rule2Only {
		selected = append(selected, inst)
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Symbol < selected[j].Symbol })
	return selected
}

// rationaleFor explains which rule admitted the instrument.
func rationaleFor(inst domain.InstrumentStats) string {
	if inst.QualifiesRule1 {
		return rationaleRule1
	}
	return rationaleRule2
}
