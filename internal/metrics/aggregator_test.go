package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/simulation"
)

const tol = 1e-9

func day(n int) time.Time {
	return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC)
}

func trade(id string, entry, exit int, entryPrice, exitPrice float64, pt domain.PositionType) domain.Trade {
	return domain.Trade{
		TradeID:      id,
		Symbol:       "BBB",
		EntryDate:    day(entry),
		EntryPrice:   entryPrice,
		ExitDate:     day(exit),
		ExitPrice:    exitPrice,
		PositionType: pt,
	}
}

func simulate(t *testing.T, cfg config.Trading, trades ...domain.Trade) *domain.SimulationResult {
	t.Helper()
	res, err := simulation.Simulate(trades, cfg)
	require.NoError(t, err)
	return res
}

func TestAggregate_SingleTrade(t *testing.T) {
	cfg := config.Trading{InitialCapital: 1000, PositionSizePercent: 0.5}
	res := simulate(t, cfg, trade("t1", 1, 2, 100, 110, domain.PositionLong))

	rep := Aggregate(res, cfg)

	assert.False(t, rep.NoTrades)
	assert.Equal(t, 1, rep.TotalTrades)
	assert.Equal(t, 2, rep.TotalDays)
	assert.Equal(t, 1, rep.ProfitableDays)
	assert.InDelta(t, 500, rep.MaxInvested, tol)
	assert.InDelta(t, 0, rep.TotalCosts, tol)
	assert.InDelta(t, 0.05, rep.FinalPerformance, tol)
	assert.InDelta(t, 0, rep.MaxDrawdown, tol)

	assert.InDelta(t, 0.10, rep.RawPerformance.TotalPerformance, tol)
	assert.InDelta(t, 0.10, rep.NetPerformance.TotalPerformance, tol)
	assert.Equal(t, 1.0, rep.NetPerformance.WinRate)

	assert.InDelta(t, 1000, rep.Portfolio.InitialCapital, tol)
	assert.InDelta(t, 1050, rep.Portfolio.FinalCapital, tol)
	assert.InDelta(t, 1050, rep.Portfolio.MaxCapital, tol)
	assert.InDelta(t, 1000, rep.Portfolio.MinCapital, tol)
	assert.InDelta(t, 0, rep.Portfolio.CurrentInvested, tol)
	assert.InDelta(t, 1050, rep.Portfolio.CurrentAvailable, tol)
}

func TestAggregate_SkippedTradeReportsZeroTrades(t *testing.T) {
	cfg := config.Trading{InitialCapital: 1000, PositionSizePercent: 0.5, FixedCommission: 600}
	res := simulate(t, cfg, trade("t1", 1, 2, 100, 110, domain.PositionLong))

	rep := Aggregate(res, cfg)

	assert.True(t, rep.NoTrades)
	assert.Equal(t, 0, rep.TotalTrades)
	assert.Equal(t, 1, rep.SkippedTrades)
	assert.Equal(t, 2, rep.TotalDays)
	assert.Equal(t, 0, rep.ProfitableDays)
	assert.InDelta(t, 1000, rep.Portfolio.FinalCapital, tol)
	assert.Zero(t, rep.Costs.AvgCostPerTrade)
}

func TestAggregate_EmptyTable(t *testing.T) {
	cfg := config.DefaultTrading()
	res := simulate(t, cfg)

	var rep *domain.PerformanceReport
	require.NotPanics(t, func() { rep = Aggregate(res, cfg) })

	assert.True(t, rep.NoTrades)
	assert.Zero(t, rep.TotalTrades)
	assert.Zero(t, rep.TotalDays)
	assert.InDelta(t, cfg.InitialCapital, rep.Portfolio.FinalCapital, tol)

	rep = Aggregate(nil, cfg)
	assert.True(t, rep.NoTrades)
}

func TestAggregate_CostBreakdown(t *testing.T) {
	cfg := config.DefaultTrading()
	res := simulate(t, cfg,
		trade("a", 1, 3, 50, 55, domain.PositionLong),
		trade("b", 2, 3, 40, 38, domain.PositionShort),
	)
	require.Len(t, res.Costs, 2)

	rep := Aggregate(res, cfg)

	var entryCommission, exitTotal, total float64
	for _, c := range res.Costs {
		entryCommission += c.Entry.Commission
		exitTotal += c.Exit.Total()
		total += c.Total
	}
	b := rep.Costs.Breakdown
	assert.InDelta(t, entryCommission, b.Entry.Commission, tol)
	assert.InDelta(t, 2.0, b.Entry.Commission, tol)
	assert.InDelta(t, b.Entry.Commission+b.Entry.Variable+b.Entry.Spread, b.Entry.Total, tol)
	assert.InDelta(t, exitTotal, b.Exit.Total, tol)
	assert.InDelta(t, total, rep.Costs.TotalCosts, 1e-6)
	assert.InDelta(t, rep.TotalCosts, rep.Costs.TotalCosts, tol)
	assert.InDelta(t, total/2, rep.Costs.AvgCostPerTrade, 1e-6)
}

func TestAggregate_DrawdownAgainstInitialCapital(t *testing.T) {
	cfg := config.Trading{InitialCapital: 1000, PositionSizePercent: 0.5}
	res := simulate(t, cfg,
		trade("loss", 1, 2, 100, 80, domain.PositionLong), // -100
		trade("gain", 3, 4, 100, 150, domain.PositionLong),
	)

	rep := Aggregate(res, cfg)

	assert.InDelta(t, -0.10, rep.MaxDrawdown, tol)
	assert.InDelta(t, 900, rep.Portfolio.MinCapital, tol)
	assert.Equal(t, 2, rep.TotalTrades)
	assert.Equal(t, 1, rep.RawPerformance.ProfitableTrades)
	assert.InDelta(t, 0.5, rep.RawPerformance.WinRate, tol)
	assert.InDelta(t, -0.20, rep.RawPerformance.MaxLoss, tol)
	assert.InDelta(t, 0.50, rep.RawPerformance.MaxGain, tol)
}

func TestAggregate_JSONKeys(t *testing.T) {
	cfg := config.Trading{InitialCapital: 1000, PositionSizePercent: 0.5}
	rep := Aggregate(simulate(t, cfg, trade("t1", 1, 2, 100, 110, domain.PositionLong)), cfg)

	data, err := json.Marshal(rep)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{
		"total_trades", "profitable_days", "total_days", "max_invested", "total_costs",
		"final_performance", "max_drawdown", "raw_performance", "net_performance", "costs", "portfolio",
	} {
		assert.Contains(t, m, key)
	}
	costs := m["costs"].(map[string]any)
	assert.Contains(t, costs, "avg_cost_per_trade")
	assert.Contains(t, costs["breakdown"], "entry")
}
