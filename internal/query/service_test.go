package query

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/logging"
	"pairs-backtest-lab/internal/storage"
	"pairs-backtest-lab/internal/storage/memory"
)

type fixture struct {
	svc   *Service
	runs  *memory.RunStore
	snaps *memory.SnapshotStore
}

func newFixture(t *testing.T, persist bool) fixture {
	t.Helper()
	ctx := context.Background()

	trades := memory.NewTradeStore()
	require.NoError(t, trades.InsertBulk(ctx, fixtureTrades()))

	bars := memory.NewMarketDataStore()
	require.NoError(t, bars.InsertBulk(ctx, []*domain.MarketBar{
		bar("VOD", 0, 100), bar("BP", 0, 50),
		bar("VOD", 1, 110), bar("BP", 1, 45),
	}))

	opts := Options{
		Trades:   trades,
		Bars:     bars,
		Registry: NewRegistry([]string{"FTSE100", "NASDAQ100"}),
		Defaults: config.DefaultTrading(),
		Logger:   logging.Discard(),
	}
	f := fixture{}
	if persist {
		f.runs = memory.NewRunStore()
		f.snaps = memory.NewSnapshotStore()
		opts.Runs = f.runs
		opts.Snapshots = f.snaps
	}

	svc, err := NewService(opts)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(Options{})
	assert.Error(t, err)

	_, err = NewService(Options{
		Trades:   memory.NewTradeStore(),
		Bars:     memory.NewMarketDataStore(),
		Defaults: config.Trading{},
	})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestService_MarketViews(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	assert.Equal(t, []string{"FTSE100", "NASDAQ100"}, f.svc.Markets())

	symbols, err := f.svc.Symbols(ctx, "ftse100")
	require.NoError(t, err)
	assert.Equal(t, []string{"BP", "VOD"}, symbols)

	series, err := f.svc.SymbolTimeseries(ctx, "FTSE100", "VOD")
	require.NoError(t, err)
	assert.Len(t, series, 2)

	_, err = f.svc.SymbolTimeseries(ctx, "FTSE100", "NOPE")
	assert.ErrorIs(t, err, ErrSymbolNotFound)

	index, err := f.svc.MarketIndex(ctx, "FTSE100")
	require.NoError(t, err)
	require.Len(t, index, 2)
	assert.InDelta(t, 100.0, index[1].Index, 1e-9)

	windows, err := f.svc.Windows(ctx, "FTSE100")
	require.NoError(t, err)
	assert.Equal(t, []int{20, 60}, windows)

	pairs, err := f.svc.PairsByWindow(ctx, "FTSE100", intPtr(20))
	require.NoError(t, err)
	assert.Equal(t, 2, pairs[20].TotalTrades)

	_, err = f.svc.Symbols(ctx, "DAX")
	assert.ErrorIs(t, err, ErrMarketNotFound)
}

func TestService_SymbolTrades(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	trades, err := f.svc.SymbolTrades(ctx, "FTSE100", "VOD")
	require.NoError(t, err)
	assert.Len(t, trades, 2)

	_, err = f.svc.SymbolTrades(ctx, "FTSE100", "NOPE")
	assert.ErrorIs(t, err, ErrNoTrades)
}

func TestService_Performance(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	out, err := f.svc.Performance(ctx, "FTSE100", Filter{}, config.TradingOverrides{})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Report.TotalTrades)
	assert.Equal(t, config.DefaultTrading(), out.Config)
	assert.Len(t, out.Result.Timeseries, 7)

	capital := 50000.0
	out, err = f.svc.Performance(ctx, "FTSE100", Filter{Window: intPtr(20)}, config.TradingOverrides{InitialCapital: &capital})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Report.TotalTrades)
	assert.Equal(t, 50000.0, out.Report.Portfolio.InitialCapital)
}

func TestService_PerformanceEmptyFilter(t *testing.T) {
	f := newFixture(t, false)

	out, err := f.svc.Performance(context.Background(), "FTSE100", Filter{Symbol: "NOPE"}, config.TradingOverrides{})
	require.NoError(t, err)
	assert.True(t, out.Report.NoTrades)
	assert.Empty(t, out.Result.Timeseries)
}

func TestService_PerformanceInvalidOverride(t *testing.T) {
	f := newFixture(t, false)
	bad := 1.5

	_, err := f.svc.Performance(context.Background(), "FTSE100", Filter{}, config.TradingOverrides{PositionSizePercent: &bad})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestService_SymbolAndPairPerformance(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	out, err := f.svc.SymbolPerformance(ctx, "FTSE100", "VOD", nil, config.TradingOverrides{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Report.TotalTrades)

	out, err = f.svc.SymbolPerformance(ctx, "FTSE100", "VOD", intPtr(20), config.TradingOverrides{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Report.TotalTrades)

	_, err = f.svc.SymbolPerformance(ctx, "FTSE100", "VOD", intPtr(60), config.TradingOverrides{})
	assert.ErrorIs(t, err, ErrNoTrades)

	out, err = f.svc.PairPerformance(ctx, "FTSE100", "VOD", "BP", nil, config.TradingOverrides{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Report.TotalTrades)

	_, err = f.svc.PairPerformance(ctx, "FTSE100", "VOD", "BARC", nil, config.TradingOverrides{})
	assert.ErrorIs(t, err, ErrNoTrades)
}

func TestService_Compare(t *testing.T) {
	f := newFixture(t, false)
	zero := 0.0
	big := 0.2

	out, err := f.svc.Compare(context.Background(), "FTSE100", Filter{}, []Variant{
		{Name: "default"},
		{Name: "free", Overrides: config.TradingOverrides{FixedCommission: &zero, VariableFee: &zero, BidAskSpread: &zero}},
		{Name: "big", Overrides: config.TradingOverrides{PositionSizePercent: &big}},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "default", out[0].Name)
	assert.Equal(t, "free", out[1].Name)
	assert.Equal(t, "big", out[2].Name)
	assert.Zero(t, out[1].Report.TotalCosts)
	assert.Greater(t, out[0].Report.TotalCosts, 0.0)
	assert.Equal(t, 0.2, out[2].Config.PositionSizePercent)

	neg := -1.0
	_, err = f.svc.Compare(context.Background(), "FTSE100", Filter{}, []Variant{
		{Name: "bad", Overrides: config.TradingOverrides{InitialCapital: &neg}},
	})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestService_SaveRun(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	filter := Filter{Window: intPtr(20)}
	out, err := f.svc.Performance(ctx, "FTSE100", filter, config.TradingOverrides{})
	require.NoError(t, err)

	run, err := f.svc.SaveRun(ctx, "baseline", "FTSE100", filter, out)
	require.NoError(t, err)
	assert.Len(t, run.RunID, 26)
	assert.Equal(t, "window=20", run.Filter)
	assert.Equal(t, 2, run.Trades)

	var report domain.PerformanceReport
	require.NoError(t, json.Unmarshal(run.Report, &report))
	assert.Equal(t, out.Report.TotalTrades, report.TotalTrades)

	got, err := f.svc.Run(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "baseline", got.Name)

	runs, err := f.svc.Runs(ctx, "ftse100", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	days, err := f.svc.RunTimeseries(ctx, run.RunID)
	require.NoError(t, err)
	assert.Len(t, days, len(out.Result.Timeseries))

	_, err = f.svc.RunTimeseries(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestService_PersistenceDisabled(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	out, err := f.svc.Performance(ctx, "FTSE100", Filter{}, config.TradingOverrides{})
	require.NoError(t, err)

	_, err = f.svc.SaveRun(ctx, "x", "FTSE100", Filter{}, out)
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
	_, err = f.svc.Runs(ctx, "", 0)
	assert.ErrorIs(t, err, ErrPersistenceDisabled)
}
