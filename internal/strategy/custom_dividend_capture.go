package strategy

import (
	"fmt"

	"dividend-strategy-lab/internal/domain"
)

// CustomDividendCaptureStrategy is the path-dependent variant of dividend
// capture. It opens half a position two trading days before the ex-date
// and adds the second half one day before only if price did not rise in
// between; otherwise the cycle stays half-sized. The whole position exits
// ExitDaysAfter trading days after the ex-date.
type CustomDividendCaptureStrategy struct {
	ExitDaysAfter int
}

// NewCustomDividendCaptureStrategy creates a CustomDividendCaptureStrategy.
func NewCustomDividendCaptureStrategy(exitDaysAfter int) *CustomDividendCaptureStrategy {
	return &CustomDividendCaptureStrategy{ExitDaysAfter: exitDaysAfter}
}

// Name returns the strategy identifier including parameters.
func (s *CustomDividendCaptureStrategy) Name() string {
	return fmt.Sprintf("%s_exit%d", domain.StrategyTypeCustomDividendCapture, s.ExitDaysAfter)
}

// GenerateSignals emits a 0.5 entry at ex-2 for every dividend bar. The
// second 0.5 entry at ex-1 is conditional: it fires only if the close at
// ex-1 is at or below the close at ex-2. Cycles without two days of
// history before the ex-date or ExitDaysAfter days of data after it are
// skipped. Collision policy matches DividendCaptureStrategy: the later
// cycle's entry wins, the following exit closes all open lots.
func (s *CustomDividendCaptureStrategy) GenerateSignals(bars []domain.Bar) []domain.Signal {
	signals := make([]domain.Signal, len(bars))
	for i := range bars {
		if bars[i].Dividend <= 0 {
			continue
		}
		first := i - 2
		second := i - 1
		exit := i + s.ExitDaysAfter
		if first < 0 || exit >= len(bars) {
			continue
		}
		signals[exit] = domain.SignalExit
		signals[first] = 0.5
		if bars[second].Close <= bars[first].Close {
			signals[second] = 0.5
		}
	}
	return signals
}

// PositionSize buys as many whole shares as cash allows; the engine
// applies the signal fraction to available cash before sizing.
func (s *CustomDividendCaptureStrategy) PositionSize(availableCash, price float64) int64 {
	return fullPositionSize(availableCash, price)
}

// Ensure CustomDividendCaptureStrategy implements Strategy.
var _ Strategy = (*CustomDividendCaptureStrategy)(nil)
