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

func TestRunStore_InsertGetList(t *testing.T) {
	pool := setupTestDB(t)

	store := NewRunStore(pool)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	runs := []*domain.Run{
		{RunID: "01A", Name: "baseline", Market: "FTSE100", Config: []byte(`{"a": 1}`), Report: []byte(`{"b": 2}`), Trades: 4, CreatedAt: base},
		{RunID: "01B", Name: "tight", Market: "FTSE100", Config: []byte(`{}`), Report: []byte(`{}`), Skipped: 2, CreatedAt: base.Add(time.Minute)},
		{RunID: "01C", Market: "NASDAQ100", Config: []byte(`{}`), Report: []byte(`{}`), Rejected: 1, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range runs {
		require.NoError(t, store.Insert(ctx, r))
	}
	require.ErrorIs(t, store.Insert(ctx, runs[0]), storage.ErrDuplicateKey)

	got, err := store.GetByID(ctx, "01A")
	require.NoError(t, err)
	assert.Equal(t, "baseline", got.Name)
	assert.Equal(t, 4, got.Trades)
	assert.JSONEq(t, `{"a": 1}`, string(got.Config))
	assert.JSONEq(t, `{"b": 2}`, string(got.Report))
	assert.True(t, base.Equal(got.CreatedAt))

	_, err = store.GetByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	all, err := store.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "01C", all[0].RunID)

	ftse, err := store.List(ctx, "FTSE100", 1)
	require.NoError(t, err)
	require.Len(t, ftse, 1)
	assert.Equal(t, "01B", ftse[0].RunID)
}
