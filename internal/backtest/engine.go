// Package backtest simulates strategy execution bar by bar, tracking
// partial position lots, dividend accrual, and the daily equity curve.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/strategy"
)

// Engine errors
var (
	// ErrNoData is returned when the input series is empty or the
	// initial capital is not positive.
	ErrNoData = errors.New("no data for backtest")

	// ErrSignalMismatch is returned when a strategy emits a signal
	// series not aligned 1:1 to the bar series.
	ErrSignalMismatch = errors.New("signal series not aligned to bars")
)

// lot is one open stake created by an entry signal. Lots live entirely
// within a single Run and never escape the engine.
type lot struct {
	entryDate  time.Time
	entryPrice float64
	shares     int64
	dividends  float64 // accumulated while open, apportioned by share count
	entryCost  float64
}

// Engine executes a strategy over a bar series. Transaction cost is
// notional * CostRate, charged on both entry and exit; a zero rate is valid.
type Engine struct {
	costRate float64
}

// NewEngine creates an Engine with the given transaction cost rate.
func NewEngine(costRate float64) *Engine {
	return &Engine{costRate: costRate}
}

// Run executes strat over bars starting from initialCapital and returns
// the completed trade ledger plus the daily equity curve.
//
// Per-bar order: dividends accrue to open lots first, then the bar's
// signal executes at the close price, then equity is marked. Lots still
// open after the final bar are force-closed at the final close so no lot
// is ever silently dropped.
func (e *Engine) Run(ctx context.Context, strat strategy.Strategy, bars []domain.Bar, symbol string, initialCapital float64) (*domain.BacktestResult, error) {
	if len(bars) == 0 || initialCapital <= 0 {
		return nil, ErrNoData
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signals := strat.GenerateSignals(bars)
	if len(signals) != len(bars) {
		return nil, fmt.Errorf("%w: %d signals for %d bars", ErrSignalMismatch, len(signals), len(bars))
	}

	cash := initialCapital
	var lots []*lot
	var trades []*domain.Trade
	equity := make([]domain.EquityPoint, 0, len(bars))

	for i := range bars {
		bar := &bars[i]

		// Dividend accrual: holders of open lots are credited before
		// the bar's signal, so an exit on the ex-dividend bar still
		// collects that day's dividend.
		if bar.Dividend > 0 && len(lots) > 0 {
			for _, l := range lots {
				credit := float64(l.shares) * bar.Dividend
				l.dividends += credit
				cash += credit
			}
		}

		sig := signals[i]
		switch {
		case sig.IsExit():
			trades = append(trades, e.closeAll(&lots, &cash, symbol, bar)...)

		// An entry on the final bar would force-close on its own entry
		// date, so it is ignored.
		case sig.IsEntry() && i < len(bars)-1:
			// The entry cost is carved out of the sizing budget so a
			// full entry stays affordable at round prices.
			budget := sig.Fraction() * cash / (1 + e.costRate)
			shares := strat.PositionSize(budget, bar.Close)
			if shares > 0 {
				notional := float64(shares) * bar.Close
				cost := notional * e.costRate
				if notional+cost <= cash {
					cash -= notional + cost
					lots = append(lots, &lot{
						entryDate:  bar.Date,
						entryPrice: bar.Close,
						shares:     shares,
						entryCost:  cost,
					})
				}
			}
		}

		equity = append(equity, domain.EquityPoint{
			Date:  bar.Date,
			Value: cash + markToMarket(lots, bar.Close),
		})
	}

	// Forced close at the final bar, exactly as an exit signal would.
	if len(lots) > 0 {
		last := &bars[len(bars)-1]
		trades = append(trades, e.closeAll(&lots, &cash, symbol, last)...)
		equity[len(equity)-1].Value = cash
	}

	assertTrades(trades)

	return &domain.BacktestResult{
		StrategyName:   strat.Name(),
		Symbol:         symbol,
		StartDate:      bars[0].Date,
		EndDate:        bars[len(bars)-1].Date,
		InitialCapital: initialCapital,
		FinalCapital:   cash,
		Trades:         trades,
		EquityCurve:    equity,
	}, nil
}

// closeAll closes every open lot at the bar's close price, producing one
// trade per lot and crediting proceeds net of exit cost back to cash.
func (e *Engine) closeAll(lots *[]*lot, cash *float64, symbol string, bar *domain.Bar) []*domain.Trade {
	trades := make([]*domain.Trade, 0, len(*lots))
	for _, l := range *lots {
		notional := float64(l.shares) * bar.Close
		exitCost := notional * e.costRate
		*cash += notional - exitCost
		trades = append(trades, &domain.Trade{
			Symbol:     symbol,
			EntryDate:  l.entryDate,
			ExitDate:   bar.Date,
			EntryPrice: l.entryPrice,
			ExitPrice:  bar.Close,
			Shares:     l.shares,
			Dividends:  l.dividends,
			EntryCost:  l.entryCost,
			ExitCost:   exitCost,
		})
	}
	*lots = (*lots)[:0]
	return trades
}

// markToMarket values open lots at the current close.
func markToMarket(lots []*lot, close float64) float64 {
	var v float64
	for _, l := range lots {
		v += float64(l.shares) * close
	}
	return v
}

// assertTrades enforces engine invariants. A violation is a logic bug in
// the engine, not bad input, so it panics rather than returning an error.
func assertTrades(trades []*domain.Trade) {
	for _, t := range trades {
		if t.Shares <= 0 {
			panic(fmt.Sprintf("backtest: trade with non-positive shares: %+v", t))
		}
		if !t.ExitDate.After(t.EntryDate) {
			panic(fmt.Sprintf("backtest: trade exit not after entry: %+v", t))
		}
	}
}
