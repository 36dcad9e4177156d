package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/simulation"
)

func trades() []domain.Trade {
	day := func(n int) time.Time { return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC) }
	return []domain.Trade{
		{TradeID: "a", Symbol: "AAA", EntryDate: day(1), EntryPrice: 10, ExitDate: day(3), ExitPrice: 11, PositionType: domain.PositionLong},
		{TradeID: "b", Symbol: "BBB", EntryDate: day(2), EntryPrice: 20, ExitDate: day(4), ExitPrice: 19, PositionType: domain.PositionShort},
		{TradeID: "c", Symbol: "CCC", EntryDate: day(2), EntryPrice: 5, ExitDate: day(5), ExitPrice: 4, PositionType: domain.PositionLong},
	}
}

func TestRun_MatchesSequential(t *testing.T) {
	cheap := config.DefaultTrading()
	costly := config.DefaultTrading()
	costly.FixedCommission = 25
	big := config.DefaultTrading()
	big.PositionSizePercent = 0.2

	jobs := []Job{
		{Name: "cheap", Config: cheap, Trades: trades()},
		{Name: "costly", Config: costly, Trades: trades()},
		{Name: "big", Config: big, Trades: trades()},
	}

	results, err := Run(context.Background(), jobs, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, job := range jobs {
		assert.Equal(t, job.Name, results[i].Name)

		want, err := simulation.Simulate(job.Trades, job.Config)
		require.NoError(t, err)
		assert.Equal(t, want, results[i].Result, job.Name)
		assert.Equal(t, 3, results[i].Report.TotalTrades, job.Name)
	}

	assert.Greater(t, results[1].Report.TotalCosts, results[0].Report.TotalCosts)
}

func TestRun_InvalidConfigFailsBeforeRunning(t *testing.T) {
	bad := config.DefaultTrading()
	bad.InitialCapital = -1

	_, err := Run(context.Background(), []Job{
		{Name: "ok", Config: config.DefaultTrading(), Trades: trades()},
		{Name: "bad", Config: bad, Trades: trades()},
	}, 0)

	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, []Job{{Name: "x", Config: config.DefaultTrading(), Trades: trades()}}, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_NoJobs(t *testing.T) {
	results, err := Run(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
