package domain

import "time"

// Trade is an immutable record of one completed round-trip. A trade is
// created when an exit signal (or the end of the series) closes a lot.
type Trade struct {
	Symbol     string
	EntryDate  time.Time
	ExitDate   time.Time
	EntryPrice float64
	ExitPrice  float64
	Shares     int64
	Dividends  float64 // dividends collected while the lot was open
	EntryCost  float64 // transaction cost paid on entry
	ExitCost   float64 // transaction cost paid on exit
}

// CapitalGain returns (exit - entry) x shares.
func (t *Trade) CapitalGain() float64 {
	return (t.ExitPrice - t.EntryPrice) * float64(t.Shares)
}

// TotalReturn returns capital gain plus dividends minus transaction costs.
func (t *Trade) TotalReturn() float64 {
	return t.CapitalGain() + t.Dividends - t.EntryCost - t.ExitCost
}

// HoldingDays returns the calendar days between entry and exit.
func (t *Trade) HoldingDays() int {
	return int(t.ExitDate.Sub(t.EntryDate).Hours() / 24)
}

// EquityPoint is the portfolio value at the close of one bar:
// cash plus the mark-to-market value of all open lots.
type EquityPoint struct {
	Date  time.Time
	Value float64
}

// BacktestResult holds the full output of one backtest run. It is
// produced once by the engine and never mutated afterwards.
type BacktestResult struct {
	StrategyName   string
	Symbol         string
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	FinalCapital   float64
	Trades         []*Trade
	EquityCurve    []EquityPoint
}

// TotalReturnPct returns the fractional return over the whole run.
func (r *BacktestResult) TotalReturnPct() float64 {
	if r.InitialCapital == 0 {
		return 0
	}
	return r.FinalCapital/r.InitialCapital - 1
}

// TotalTrades returns the number of completed round-trips.
func (r *BacktestResult) TotalTrades() int {
	return len(r.Trades)
}

// WinRate returns the fraction of trades with positive total return,
// 0 when there are no trades.
func (r *BacktestResult) WinRate() float64 {
	if len(r.Trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range r.Trades {
		if t.TotalReturn() > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(r.Trades))
}

// DailyReturns returns the day-over-day fractional changes of the equity
// curve. The slice has len(EquityCurve)-1 entries, or nil for short curves.
func (r *BacktestResult) DailyReturns() []float64 {
	if len(r.EquityCurve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(r.EquityCurve)-1)
	for i := 1; i < len(r.EquityCurve); i++ {
		prev := r.EquityCurve[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, r.EquityCurve[i].Value/prev-1)
	}
	return returns
}
