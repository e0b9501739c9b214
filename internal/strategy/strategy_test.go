package strategy

import (
	"errors"
	"testing"
	"time"

	"dividend-strategy-lab/internal/domain"
)

// makeBars builds a daily bar series from close prices. Dividends are
// applied by index afterwards.
func makeBars(closes []float64) []domain.Bar {
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			Date:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 10000,
		}
	}
	return bars
}

func flatBars(n int, price float64) []domain.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return makeBars(closes)
}

func TestBuyAndHoldSignals(t *testing.T) {
	bars := flatBars(5, 10)
	signals := NewBuyAndHoldStrategy().GenerateSignals(bars)

	if len(signals) != 5 {
		t.Fatalf("len(signals) = %d, want 5", len(signals))
	}
	if signals[0] != 1 {
		t.Errorf("signals[0] = %v, want full entry", signals[0])
	}
	if !signals[4].IsExit() {
		t.Errorf("signals[4] = %v, want exit", signals[4])
	}
	for i := 1; i < 4; i++ {
		if signals[i] != domain.SignalHold {
			t.Errorf("signals[%d] = %v, want hold", i, signals[i])
		}
	}
}

func TestBuyAndHoldSingleBarHolds(t *testing.T) {
	signals := NewBuyAndHoldStrategy().GenerateSignals(flatBars(1, 10))
	if signals[0] != domain.SignalHold {
		t.Errorf("single-bar series should emit hold, got %v", signals[0])
	}
}

func TestDividendCaptureWindowing(t *testing.T) {
	// 20 bars, one $0.50 dividend on day 10 (0-indexed),
	// entry 2 days before, exit 1 day after.
	bars := flatBars(20, 10)
	bars[10].Dividend = 0.50

	s := NewDividendCaptureStrategy(2, 1)
	signals := s.GenerateSignals(bars)

	if signals[8] != 1 {
		t.Errorf("signals[8] = %v, want full entry", signals[8])
	}
	if !signals[11].IsExit() {
		t.Errorf("signals[11] = %v, want exit", signals[11])
	}
	for i, sig := range signals {
		if i == 8 || i == 11 {
			continue
		}
		if sig != domain.SignalHold {
			t.Errorf("signals[%d] = %v, want hold", i, sig)
		}
	}
}

func TestDividendCaptureSkipsBoundaryCycles(t *testing.T) {
	s := NewDividendCaptureStrategy(2, 1)

	// Dividend on day 1: only 1 day of history before, cycle skipped.
	bars := flatBars(10, 10)
	bars[1].Dividend = 0.25
	for i, sig := range s.GenerateSignals(bars) {
		if sig != domain.SignalHold {
			t.Errorf("early dividend: signals[%d] = %v, want hold", i, sig)
		}
	}

	// Dividend on the last bar: no future exit day, cycle skipped.
	bars = flatBars(10, 10)
	bars[9].Dividend = 0.25
	for i, sig := range s.GenerateSignals(bars) {
		if sig != domain.SignalHold {
			t.Errorf("late dividend: signals[%d] = %v, want hold", i, sig)
		}
	}
}

func TestDividendCaptureOverlappingWindows(t *testing.T) {
	// Exit of the first cycle (day 6) collides with the entry of the
	// second (day 6). The entry must win so the second window opens;
	// the second exit closes everything.
	bars := flatBars(12, 10)
	bars[5].Dividend = 0.10
	bars[8].Dividend = 0.10

	s := NewDividendCaptureStrategy(2, 1)
	signals := s.GenerateSignals(bars)

	if signals[3] != 1 {
		t.Errorf("signals[3] = %v, want entry for first cycle", signals[3])
	}
	if signals[6] != 1 {
		t.Errorf("signals[6] = %v, want entry (collision resolved to entry)", signals[6])
	}
	if !signals[9].IsExit() {
		t.Errorf("signals[9] = %v, want exit", signals[9])
	}
}

func TestCustomDividendCaptureSecondLeg(t *testing.T) {
	s := NewCustomDividendCaptureStrategy(1)

	// Price fell into the ex-date: both half entries fire.
	closes := []float64{10, 10, 10, 10, 9.8, 10, 10, 10}
	bars := makeBars(closes)
	bars[5].Dividend = 0.50
	signals := s.GenerateSignals(bars)
	if signals[3] != 0.5 {
		t.Errorf("signals[3] = %v, want 0.5", signals[3])
	}
	if signals[4] != 0.5 {
		t.Errorf("signals[4] = %v, want second 0.5 leg (price did not rise)", signals[4])
	}
	if !signals[6].IsExit() {
		t.Errorf("signals[6] = %v, want exit", signals[6])
	}

	// Price rose into the ex-date: only the first half entry fires.
	closes = []float64{10, 10, 10, 10, 10.4, 10, 10, 10}
	bars = makeBars(closes)
	bars[5].Dividend = 0.50
	signals = s.GenerateSignals(bars)
	if signals[3] != 0.5 {
		t.Errorf("signals[3] = %v, want 0.5", signals[3])
	}
	if signals[4] != domain.SignalHold {
		t.Errorf("signals[4] = %v, want hold (price rose)", signals[4])
	}
}

func TestPositionSizeRespectsCash(t *testing.T) {
	s := NewBuyAndHoldStrategy()
	cases := []struct {
		cash, price float64
		want        int64
	}{
		{1000, 10, 100},
		{1005, 10, 100},
		{9.99, 10, 0},
		{1000, 0, 0},
		{0, 10, 0},
	}
	for _, c := range cases {
		got := s.PositionSize(c.cash, c.price)
		if got != c.want {
			t.Errorf("PositionSize(%v, %v) = %d, want %d", c.cash, c.price, got, c.want)
		}
		if c.price > 0 && float64(got)*c.price > c.cash {
			t.Errorf("PositionSize(%v, %v) = %d exceeds cash", c.cash, c.price, got)
		}
	}
}

func TestFromConfig(t *testing.T) {
	two, one := 2, 1

	cases := []struct {
		name    string
		cfg     domain.StrategyConfig
		wantErr error
	}{
		{"buy and hold", domain.StrategyConfig{StrategyType: domain.StrategyTypeBuyAndHold}, nil},
		{
			"dividend capture",
			domain.StrategyConfig{
				StrategyType:    domain.StrategyTypeDividendCapture,
				EntryDaysBefore: &two,
				ExitDaysAfter:   &one,
			},
			nil,
		},
		{
			"dividend capture missing entry days",
			domain.StrategyConfig{
				StrategyType:  domain.StrategyTypeDividendCapture,
				ExitDaysAfter: &one,
			},
			ErrMissingEntryDaysBefore,
		},
		{
			"custom capture missing exit days",
			domain.StrategyConfig{StrategyType: domain.StrategyTypeCustomDividendCapture},
			ErrMissingExitDaysAfter,
		},
		{"unknown", domain.StrategyConfig{StrategyType: "MOMENTUM"}, ErrUnknownStrategyType},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := FromConfig(c.cfg)
			if c.wantErr != nil {
				if !errors.Is(err, c.wantErr) {
					t.Fatalf("FromConfig error = %v, want %v", err, c.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromConfig failed: %v", err)
			}
			if s == nil {
				t.Fatal("FromConfig returned nil strategy")
			}
		})
	}
}

func TestRegistryExtension(t *testing.T) {
	r := NewRegistry()
	r.Register("ALWAYS_FLAT", func(_ domain.StrategyConfig) (Strategy, error) {
		return NewBuyAndHoldStrategy(), nil
	})

	if _, err := r.Build(domain.StrategyConfig{StrategyType: "ALWAYS_FLAT"}); err != nil {
		t.Fatalf("Build on registered extension failed: %v", err)
	}

	types := r.Types()
	if len(types) != 4 {
		t.Fatalf("Types() = %v, want 4 entries", types)
	}
}
