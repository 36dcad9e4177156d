// Package reporting renders simulation results as CSV tables and Markdown summaries.
package reporting

import (
	"time"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
)

// Report bundles one simulation run for export.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Name        string
	Market      string
	Filter      string // empty means all trades

	Config      config.Trading
	Performance *domain.PerformanceReport

	Timeseries   []domain.DailySnapshot
	Performances []domain.TradePerformance
	Costs        []domain.TradeCost
	Skipped      []string
	Rejected     []domain.RejectedTrade
}

// ComparisonRow is one variant in a comparison table.
type ComparisonRow struct {
	Name   string
	Config config.Trading
	Report *domain.PerformanceReport
}
