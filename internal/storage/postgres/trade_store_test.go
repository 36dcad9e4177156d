package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/storage"
)

func testTrade(market, id, symbol string, window *int) *domain.Trade {
	return &domain.Trade{
		TradeID:      id,
		Market:       market,
		Symbol:       symbol,
		PairedSymbol: "PAIR",
		EntryDate:    time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		EntryPrice:   101.5,
		ExitDate:     time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
		ExitPrice:    99.25,
		PositionType: domain.PositionShort,
		Window:       window,
	}
}

func TestTradeStore_InsertBulkAndGet(t *testing.T) {
	pool := setupTestDB(t)

	store := NewTradeStore(pool)
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.Trade{
		testTrade("FTSE100", "t2", "BBB", ptr(20)),
		testTrade("FTSE100", "t1", "AAA", nil),
	})
	require.NoError(t, err)
	require.NoError(t, store.InsertBulk(ctx, []*domain.Trade{testTrade("FTSE100", "t0", "CCC", ptr(60))}))

	got, err := store.GetByMarket(ctx, "FTSE100")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "t2", got[0].TradeID)
	assert.Equal(t, "t1", got[1].TradeID)
	assert.Equal(t, "t0", got[2].TradeID)

	assert.Equal(t, testTrade("FTSE100", "t2", "BBB", ptr(20)), got[0])
	assert.Nil(t, got[1].Window)
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	pool := setupTestDB(t)

	store := NewTradeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.Trade{testTrade("FTSE100", "t1", "AAA", nil)}))

	err := store.InsertBulk(ctx, []*domain.Trade{
		testTrade("FTSE100", "t2", "BBB", nil),
		testTrade("FTSE100", "t1", "AAA", nil),
	})
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByMarket(ctx, "FTSE100")
	require.NoError(t, err)
	assert.Len(t, got, 1, "failed batch must not be partially applied")
}

func TestTradeStore_Markets(t *testing.T) {
	pool := setupTestDB(t)

	store := NewTradeStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []*domain.Trade{
		testTrade("NASDAQ100", "a", "AAA", nil),
		testTrade("FTSE100", "a", "AAA", nil),
	}))

	markets, err := store.Markets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"FTSE100", "NASDAQ100"}, markets)

	empty, err := store.GetByMarket(ctx, "DAX")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
