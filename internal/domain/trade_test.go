package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTradeDerivedFields(t *testing.T) {
	trade := &Trade{
		Symbol:     "DIV",
		EntryDate:  date(2023, 3, 6),
		ExitDate:   date(2023, 3, 9),
		EntryPrice: 10.00,
		ExitPrice:  10.20,
		Shares:     100,
		Dividends:  50.0,
		EntryCost:  1.0,
		ExitCost:   1.02,
	}

	if got, want := trade.CapitalGain(), 20.0; !almostEqual(got, want) {
		t.Errorf("CapitalGain = %v, want %v", got, want)
	}
	if got, want := trade.TotalReturn(), 20.0+50.0-1.0-1.02; !almostEqual(got, want) {
		t.Errorf("TotalReturn = %v, want %v", got, want)
	}
	if got, want := trade.HoldingDays(), 3; got != want {
		t.Errorf("HoldingDays = %v, want %v", got, want)
	}
}

func TestSignalClassification(t *testing.T) {
	cases := []struct {
		name    string
		sig     Signal
		isEntry bool
		isExit  bool
	}{
		{"hold", SignalHold, false, false},
		{"full entry", 1.0, true, false},
		{"half entry", 0.5, true, false},
		{"exit", SignalExit, false, true},
		{"out of range", 1.5, false, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.sig.IsEntry(); got != c.isEntry {
				t.Errorf("IsEntry() = %v, want %v", got, c.isEntry)
			}
			if got := c.sig.IsExit(); got != c.isExit {
				t.Errorf("IsExit() = %v, want %v", got, c.isExit)
			}
		})
	}
}

func TestBacktestResultWinRate(t *testing.T) {
	r := &BacktestResult{
		InitialCapital: 1000,
		FinalCapital:   1100,
		Trades: []*Trade{
			{EntryPrice: 10, ExitPrice: 11, Shares: 10},
			{EntryPrice: 10, ExitPrice: 9, Shares: 10},
			{EntryPrice: 10, ExitPrice: 10, Shares: 10, Dividends: 5},
		},
	}

	if got, want := r.WinRate(), 2.0/3.0; !almostEqual(got, want) {
		t.Errorf("WinRate = %v, want %v", got, want)
	}
	if got, want := r.TotalReturnPct(), 0.1; !almostEqual(got, want) {
		t.Errorf("TotalReturnPct = %v, want %v", got, want)
	}
}

func TestDailyReturns(t *testing.T) {
	r := &BacktestResult{
		EquityCurve: []EquityPoint{
			{Date: date(2023, 1, 2), Value: 100},
			{Date: date(2023, 1, 3), Value: 110},
			{Date: date(2023, 1, 4), Value: 99},
		},
	}
	returns := r.DailyReturns()
	if len(returns) != 2 {
		t.Fatalf("len(DailyReturns) = %d, want 2", len(returns))
	}
	if !almostEqual(returns[0], 0.10) || !almostEqual(returns[1], -0.10) {
		t.Errorf("DailyReturns = %v", returns)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
