package reporting

import (
	"encoding/csv"
	"io"

	"pairs-backtest-lab/internal/domain"
)

// WriteTimeseriesCSV writes the day sequence, one row per calendar day.
func WriteTimeseriesCSV(w io.Writer, days []domain.DailySnapshot) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"date", "available_capital", "invested_capital", "total_capital", "daily_pnl", "daily_costs",
		"active_positions", "cumulative_pnl", "cumulative_costs", "net_performance", "performance_pct",
	})
	for _, d := range days {
		_ = cw.Write([]string{
			d.DateKey(),
			money(d.AvailableCapital), money(d.InvestedCapital), money(d.TotalCapital),
			money(d.DailyPnL), money(d.DailyCosts),
			itoa(d.ActivePositions),
			money(d.CumulativePnL), money(d.CumulativeCosts), money(d.NetPerformance),
			ratio(d.PerformancePct),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteTradesCSV writes per-trade performance in exit order.
func WriteTradesCSV(w io.Writer, perfs []domain.TradePerformance) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"trade_id", "raw_performance", "cost_impact", "net_performance"})
	for _, p := range perfs {
		_ = cw.Write([]string{p.TradeID, ratio(p.RawPerformance), ratio(p.CostImpact), ratio(p.NetPerformance)})
	}
	cw.Flush()
	return cw.Error()
}

// WriteCostsCSV writes the itemized entry and exit cost of every executed trade.
func WriteCostsCSV(w io.Writer, costs []domain.TradeCost) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"trade_id",
		"entry_commission", "entry_variable", "entry_spread",
		"exit_commission", "exit_variable", "exit_spread",
		"total",
	})
	for _, c := range costs {
		_ = cw.Write([]string{
			c.TradeID,
			money(c.Entry.Commission), money(c.Entry.Variable), money(c.Entry.Spread),
			money(c.Exit.Commission), money(c.Exit.Variable), money(c.Exit.Spread),
			money(c.Total),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteComparisonCSV writes one summary row per variant.
func WriteComparisonCSV(w io.Writer, rows []ComparisonRow) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"name", "position_size_percent", "total_trades", "final_capital", "final_performance",
		"max_drawdown", "total_costs", "net_win_rate", "skipped_trades",
	})
	for _, r := range rows {
		p := r.Report
		_ = cw.Write([]string{
			r.Name,
			ratio(r.Config.PositionSizePercent),
			itoa(p.TotalTrades),
			money(p.Portfolio.FinalCapital),
			money(p.FinalPerformance),
			ratio(p.MaxDrawdown),
			money(p.TotalCosts),
			ratio(p.NetPerformance.WinRate),
			itoa(p.SkippedTrades),
		})
	}
	cw.Flush()
	return cw.Error()
}
