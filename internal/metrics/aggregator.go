package metrics

import (
	"math"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
)

// Aggregate reduces a simulation result into a performance report.
//
// When no trade was executed the report has NoTrades set and zero-valued trade
// sections. Day-level fields are still filled if the run simulated any days.
func Aggregate(result *domain.SimulationResult, cfg config.Trading) *domain.PerformanceReport {
	report := &domain.PerformanceReport{}
	if result == nil {
		report.NoTrades = true
		report.Portfolio = emptyPortfolio(cfg.InitialCapital)
		return report
	}

	report.SkippedTrades = len(result.Skipped)
	report.RejectedTrades = len(result.Rejected)

	if result.Empty() {
		report.NoTrades = true
		report.Portfolio = emptyPortfolio(cfg.InitialCapital)
		return report
	}

	fillDays(report, result.Timeseries, cfg.InitialCapital)

	report.TotalTrades = len(result.Performances)
	raw, err := CalculateMetrics(rawSeries(result.Performances))
	if err != nil {
		report.NoTrades = true
		return report
	}
	net, _ := CalculateMetrics(netSeries(result.Performances))
	report.RawPerformance = raw
	report.NetPerformance = net

	report.Costs = costReport(result.Costs, report.TotalCosts, report.TotalTrades)

	return report
}

// fillDays computes the day-level fields and portfolio section.
// days must be non-empty.
func fillDays(report *domain.PerformanceReport, days []domain.DailySnapshot, initialCapital float64) {
	last := days[len(days)-1]

	maxCapital, minCapital := math.Inf(-1), math.Inf(1)
	for _, d := range days {
		if d.DailyPnL > 0 {
			report.ProfitableDays++
		}
		report.MaxInvested = math.Max(report.MaxInvested, d.InvestedCapital)
		maxCapital = math.Max(maxCapital, d.TotalCapital)
		minCapital = math.Min(minCapital, d.TotalCapital)
	}

	report.TotalDays = len(days)
	report.TotalCosts = last.CumulativeCosts
	report.FinalPerformance = last.PerformancePct
	// Measured against initial capital, not a running peak.
	report.MaxDrawdown = (minCapital - initialCapital) / initialCapital

	report.Portfolio = domain.PortfolioReport{
		InitialCapital:   initialCapital,
		FinalCapital:     last.TotalCapital,
		MaxCapital:       maxCapital,
		MinCapital:       minCapital,
		CurrentInvested:  last.InvestedCapital,
		CurrentAvailable: last.AvailableCapital,
	}
}

// costReport sums the itemized costs of every executed trade.
// total is the run's cumulative cost figure from the day sequence.
func costReport(records []domain.TradeCost, total float64, trades int) domain.CostReport {
	rep := domain.CostReport{TotalCosts: total}
	for _, c := range records {
		addSide(&rep.Breakdown.Entry, c.Entry)
		addSide(&rep.Breakdown.Exit, c.Exit)
	}
	if trades > 0 {
		rep.AvgCostPerTrade = rep.TotalCosts / float64(trades)
	}
	return rep
}

func addSide(side *domain.CostSideBreakdown, b domain.CostBreakdown) {
	side.Commission += b.Commission
	side.Variable += b.Variable
	side.Spread += b.Spread
	side.Total = side.Commission + side.Variable + side.Spread
}

func emptyPortfolio(initialCapital float64) domain.PortfolioReport {
	return domain.PortfolioReport{
		InitialCapital:   initialCapital,
		FinalCapital:     initialCapital,
		MaxCapital:       initialCapital,
		MinCapital:       initialCapital,
		CurrentAvailable: initialCapital,
	}
}
