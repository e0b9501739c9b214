package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dividend-strategy-lab/internal/domain"
	"dividend-strategy-lab/internal/storage"
)

func day(d int) time.Time {
	return time.Date(2024, time.May, d, 0, 0, 0, 0, time.UTC)
}

func TestTradeStoreRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewTradeStore(pool)
	trades := []*domain.Trade{
		{
			Symbol:     "SCHD",
			EntryDate:  day(3),
			ExitDate:   day(5),
			EntryPrice: 25.10,
			ExitPrice:  25.60,
			Shares:     400,
			Dividends:  100,
			EntryCost:  10.04,
			ExitCost:   10.24,
		},
		{
			Symbol:     "SCHD",
			EntryDate:  day(1),
			ExitDate:   day(2),
			EntryPrice: 25.00,
			ExitPrice:  24.80,
			Shares:     200,
		},
		{
			Symbol:     "VYM",
			EntryDate:  day(1),
			ExitDate:   day(2),
			EntryPrice: 110,
			ExitPrice:  111,
			Shares:     90,
		},
	}
	require.NoError(t, store.InsertBulk(ctx, "DIVIDEND_CAPTURE_entry2_exit1", trades))

	got, err := store.GetByStrategy(ctx, "DIVIDEND_CAPTURE_entry2_exit1", "SCHD")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by entry date, timestamps preserved.
	assert.True(t, got[0].EntryDate.Equal(day(1)))
	assert.True(t, got[1].EntryDate.Equal(day(3)))
	assert.Equal(t, int64(400), got[1].Shares)
	assert.InDelta(t, 100, got[1].Dividends, 1e-9)
	assert.InDelta(t, 200.0, got[1].CapitalGain(), 1e-9)

	other, err := store.GetByStrategy(ctx, "BUY_AND_HOLD", "SCHD")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTradeStoreValidation(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewTradeStore(pool)
	err := store.InsertBulk(ctx, "", []*domain.Trade{{Symbol: "SCHD"}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	require.NoError(t, store.InsertBulk(ctx, "BUY_AND_HOLD", nil))
}

func TestSummaryStoreUpsertReplaces(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewSummaryStore(pool)
	sum := &domain.BacktestSummary{
		Symbol:           "SCHD",
		StrategyName:     "BUY_AND_HOLD",
		StartDate:        day(1),
		EndDate:          day(30),
		InitialCapital:   10000,
		FinalCapital:     11000,
		TotalReturn:      0.10,
		AnnualizedReturn: 0.85,
		Volatility:       0.12,
		SharpeRatio:      1.4,
		MaxDrawdown:      -0.05,
		TotalTrades:      1,
		WinRate:          1,
	}
	require.NoError(t, store.Upsert(ctx, sum))

	sum.FinalCapital = 11500
	sum.TotalReturn = 0.15
	require.NoError(t, store.Upsert(ctx, sum))

	got, err := store.GetByKey(ctx, "SCHD", "BUY_AND_HOLD")
	require.NoError(t, err)
	assert.InDelta(t, 0.15, got.TotalReturn, 1e-9)
	assert.InDelta(t, 11500, got.FinalCapital, 1e-9)
	assert.True(t, got.StartDate.Equal(day(1)))

	_, err = store.GetByKey(ctx, "SCHD", "MISSING")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSummaryStoreListOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewSummaryStore(pool)
	for _, sum := range []*domain.BacktestSummary{
		{Symbol: "VYM", StrategyName: "BUY_AND_HOLD", StartDate: day(1), EndDate: day(2)},
		{Symbol: "SCHD", StrategyName: "DIVIDEND_CAPTURE", StartDate: day(1), EndDate: day(2)},
		{Symbol: "SCHD", StrategyName: "BUY_AND_HOLD", StartDate: day(1), EndDate: day(2)},
	} {
		require.NoError(t, store.Upsert(ctx, sum))
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "SCHD", list[0].Symbol)
	assert.Equal(t, "BUY_AND_HOLD", list[0].StrategyName)
	assert.Equal(t, "SCHD", list[1].Symbol)
	assert.Equal(t, "DIVIDEND_CAPTURE", list[1].StrategyName)
	assert.Equal(t, "VYM", list[2].Symbol)
}
