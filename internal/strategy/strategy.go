// Package strategy defines the Strategy contract and the built-in
// signal generators that drive the backtest engine.
package strategy

import (
	"math"

	"dividend-strategy-lab/internal/domain"
)

// Strategy is a pure function of a bar series: it emits one signal per
// bar and sizes positions against available cash.
type Strategy interface {
	// Name returns the strategy identifier (includes parameters).
	Name() string

	// GenerateSignals returns a signal series aligned 1:1 to bars.
	GenerateSignals(bars []domain.Bar) []domain.Signal

	// PositionSize returns the share count purchasable with
	// availableCash at price. The result always satisfies
	// shares * price <= availableCash.
	PositionSize(availableCash, price float64) int64
}

// fullPositionSize is the shared all-in sizing used by the built-ins.
func fullPositionSize(availableCash, price float64) int64 {
	if price <= 0 || availableCash <= 0 {
		return 0
	}
	return int64(math.Floor(availableCash / price))
}
