package domain

import "time"

// Bar represents one trading day for a single instrument.
// Within a series, dates are strictly increasing and unique, normalized
// to midnight UTC. Missing trading days are simply absent, never zero-filled.
type Bar struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Dividend float64 // dividend per share paid on this date, 0 if none
}

// Signal directs the backtest engine at a single bar.
// 0 holds, a fraction in (0,1] opens a lot sized as that fraction of
// available cash, and -1 closes every open lot.
type Signal float64

// Signal constants.
const (
	SignalHold Signal = 0
	SignalExit Signal = -1
)

// IsEntry reports whether the signal opens a position.
func (s Signal) IsEntry() bool {
	return s > 0 && s <= 1
}

// IsExit reports whether the signal closes all open lots.
func (s Signal) IsExit() bool {
	return s == SignalExit
}

// Fraction returns the entry fraction of available cash, 0 for non-entries.
func (s Signal) Fraction() float64 {
	if !s.IsEntry() {
		return 0
	}
	return float64(s)
}
