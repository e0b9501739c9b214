package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/storage"
)

func day(d int) time.Time {
	return time.Date(2024, time.May, d, 0, 0, 0, 0, time.UTC)
}

func barsOn(days ...int) []domain.Bar {
	out := make([]domain.Bar, len(days))
	for i, d := range days {
		out[i] = domain.Bar{Date: day(d), Open: 10, High: 11, Low: 9, Close: 10, Volume: 100}
	}
	return out
}

func TestBarStoreInsertAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewBarStore()

	if err := s.InsertBulk(ctx, "SCHD", barsOn(3, 1, 2)); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	bars, err := s.GetBySymbol(ctx, "SCHD")
	if err != nil {
		t.Fatalf("GetBySymbol: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("got %d bars, want 3", len(bars))
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Date.Before(bars[i].Date) {
			t.Errorf("bars not date-sorted at %d", i)
		}
	}
}

func TestBarStoreRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewBarStore()

	if err := s.InsertBulk(ctx, "SCHD", barsOn(1, 2)); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}
	// Cross-batch duplicate
	if err := s.InsertBulk(ctx, "SCHD", barsOn(2, 3)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("cross-batch duplicate: got %v, want ErrDuplicateKey", err)
	}
	// Intra-batch duplicate
	if err := s.InsertBulk(ctx, "VYM", barsOn(5, 5)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("intra-batch duplicate: got %v, want ErrDuplicateKey", err)
	}
	// Failed batch must not be partially applied
	if _, err := s.GetBySymbol(ctx, "VYM"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("failed batch leaked rows: %v", err)
	}
}

func TestBarStoreDateRangeAndSymbols(t *testing.T) {
	ctx := context.Background()
	s := NewBarStore()

	if err := s.InsertBulk(ctx, "SCHD", barsOn(1, 2, 3, 4, 5)); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}
	if err := s.InsertBulk(ctx, "JEPI", barsOn(1)); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	got, err := s.GetByDateRange(ctx, "SCHD", day(2), day(4))
	if err != nil {
		t.Fatalf("GetByDateRange: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("got %d bars in range, want 3", len(got))
	}

	if _, err := s.GetByDateRange(ctx, "NOPE", day(1), day(5)); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown symbol: got %v, want ErrNotFound", err)
	}

	syms, err := s.Symbols(ctx)
	if err != nil {
		t.Fatalf("Symbols: %v", err)
	}
	if len(syms) != 2 || syms[0] != "JEPI" || syms[1] != "SCHD" {
		t.Errorf("Symbols = %v, want [JEPI SCHD]", syms)
	}
}

func TestBarStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewBarStore()

	if err := s.InsertBulk(ctx, "SCHD", barsOn(1)); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}
	bars, _ := s.GetBySymbol(ctx, "SCHD")
	bars[0].Close = 999

	again, _ := s.GetBySymbol(ctx, "SCHD")
	if again[0].Close == 999 {
		t.Error("mutating a returned slice leaked into the store")
	}
}

func TestTradeStore(t *testing.T) {
	ctx := context.Background()
	s := NewTradeStore()

	trades := []*domain.Trade{
		{Symbol: "SCHD", EntryDate: day(3), ExitDate: day(4), Shares: 10, EntryPrice: 10, ExitPrice: 11},
		{Symbol: "SCHD", EntryDate: day(1), ExitDate: day(2), Shares: 10, EntryPrice: 10, ExitPrice: 11},
		{Symbol: "VYM", EntryDate: day(1), ExitDate: day(2), Shares: 5, EntryPrice: 20, ExitPrice: 21},
	}
	if err := s.InsertBulk(ctx, "DIVIDEND_CAPTURE_entry2_exit1", trades); err != nil {
		t.Fatalf("InsertBulk: %v", err)
	}

	got, err := s.GetByStrategy(ctx, "DIVIDEND_CAPTURE_entry2_exit1", "SCHD")
	if err != nil {
		t.Fatalf("GetByStrategy: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d trades, want 2", len(got))
	}
	if !got[0].EntryDate.Before(got[1].EntryDate) {
		t.Error("trades not ordered by entry date")
	}

	if err := s.InsertBulk(ctx, "", trades); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty strategy name: got %v, want ErrInvalidInput", err)
	}
}

func TestSummaryStoreUpsert(t *testing.T) {
	ctx := context.Background()
	s := NewSummaryStore()

	first := &domain.BacktestSummary{Symbol: "SCHD", StrategyName: "BUY_AND_HOLD", TotalReturn: 0.10}
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second := &domain.BacktestSummary{Symbol: "SCHD", StrategyName: "BUY_AND_HOLD", TotalReturn: 0.15}
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}

	got, err := s.GetByKey(ctx, "SCHD", "BUY_AND_HOLD")
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if got.TotalReturn != 0.15 {
		t.Errorf("TotalReturn = %v, want the upserted 0.15", got.TotalReturn)
	}

	if _, err := s.GetByKey(ctx, "SCHD", "UNKNOWN"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing key: got %v, want ErrNotFound", err)
	}
}

func TestSummaryStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewSummaryStore()

	for _, sum := range []*domain.BacktestSummary{
		{Symbol: "VYM", StrategyName: "BUY_AND_HOLD"},
		{Symbol: "SCHD", StrategyName: "DIVIDEND_CAPTURE"},
		{Symbol: "SCHD", StrategyName: "BUY_AND_HOLD"},
	} {
		if err := s.Upsert(ctx, sum); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"SCHD/BUY_AND_HOLD", "SCHD/DIVIDEND_CAPTURE", "VYM/BUY_AND_HOLD"}
	for i, sum := range list {
		if key := sum.Symbol + "/" + sum.StrategyName; key != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, key, want[i])
		}
	}
}

func TestBarStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewBarStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sym := fmt.Sprintf("SYM%d", i)
			if err := s.InsertBulk(ctx, sym, barsOn(1, 2, 3)); err != nil {
				t.Errorf("InsertBulk %s: %v", sym, err)
			}
			if _, err := s.GetBySymbol(ctx, sym); err != nil {
				t.Errorf("GetBySymbol %s: %v", sym, err)
			}
		}(i)
	}
	wg.Wait()

	syms, _ := s.Symbols(ctx)
	if len(syms) != 10 {
		t.Errorf("got %d symbols, want 10", len(syms))
	}
}
