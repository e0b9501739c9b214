package strategy

import "dividend-strategy-lab/internal/domain"

// BuyAndHoldStrategy opens a full position at the first bar and closes it
// at the last. It is the baseline every other strategy is compared against.
type BuyAndHoldStrategy struct{}

// NewBuyAndHoldStrategy creates a BuyAndHoldStrategy.
func NewBuyAndHoldStrategy() *BuyAndHoldStrategy {
	return &BuyAndHoldStrategy{}
}

// Name returns the strategy identifier.
func (s *BuyAndHoldStrategy) Name() string {
	return domain.StrategyTypeBuyAndHold
}

// GenerateSignals emits a full entry at the first bar and an exit at the
// last. Series shorter than two bars produce only hold signals, since a
// round-trip needs distinct entry and exit dates.
func (s *BuyAndHoldStrategy) GenerateSignals(bars []domain.Bar) []domain.Signal {
	signals := make([]domain.Signal, len(bars))
	if len(bars) < 2 {
		return signals
	}
	signals[0] = 1
	signals[len(bars)-1] = domain.SignalExit
	return signals
}

// PositionSize buys as many whole shares as cash allows.
func (s *BuyAndHoldStrategy) PositionSize(availableCash, price float64) int64 {
	return fullPositionSize(availableCash, price)
}

// Ensure BuyAndHoldStrategy implements Strategy.
var _ Strategy = (*BuyAndHoldStrategy)(nil)
