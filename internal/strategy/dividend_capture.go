package strategy

import (
	"fmt"

	"dividend-strategy-lab/internal/domain"
)

// DividendCaptureStrategy holds the instrument only around each
// ex-dividend date: full entry EntryDaysBefore trading days before the
// dividend bar, full exit ExitDaysAfter trading days after it.
type DividendCaptureStrategy struct {
	EntryDaysBefore int
	ExitDaysAfter   int
}

// NewDividendCaptureStrategy creates a DividendCaptureStrategy.
func NewDividendCaptureStrategy(entryDaysBefore, exitDaysAfter int) *DividendCaptureStrategy {
	return &DividendCaptureStrategy{
		EntryDaysBefore: entryDaysBefore,
		ExitDaysAfter:   exitDaysAfter,
	}
}

// Name returns the strategy identifier including parameters.
func (s *DividendCaptureStrategy) Name() string {
	return fmt.Sprintf("%s_entry%d_exit%d", domain.StrategyTypeDividendCapture, s.EntryDaysBefore, s.ExitDaysAfter)
}

// GenerateSignals emits an entry/exit pair per dividend bar. Offsets are
// in trading days, so index arithmetic already lands on the nearest
// available trading date. Cycles whose entry or exit falls outside the
// series are skipped. Windows may overlap across consecutive dividends:
// dividends are processed in date order and a later cycle's entry wins a
// collision with an earlier cycle's exit, because the later exit closes
// every open lot anyway.
func (s *DividendCaptureStrategy) GenerateSignals(bars []domain.Bar) []domain.Signal {
	signals := make([]domain.Signal, len(bars))
	for i := range bars {
		if bars[i].Dividend <= 0 {
			continue
		}
		entry := i - s.EntryDaysBefore
		exit := i + s.ExitDaysAfter
		if entry < 0 || exit >= len(bars) {
			continue
		}
		signals[exit] = domain.SignalExit
		signals[entry] = 1
	}
	return signals
}

// PositionSize buys as many whole shares as cash allows.
func (s *DividendCaptureStrategy) PositionSize(availableCash, price float64) int64 {
	return fullPositionSize(availableCash, price)
}

// Ensure DividendCaptureStrategy implements Strategy.
var _ Strategy = (*DividendCaptureStrategy)(nil)
