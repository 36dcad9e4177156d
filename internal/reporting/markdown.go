package reporting

import (
	"fmt"
	"strings"
	"time"

	"pairs-backtest-lab/internal/domain"
)

// RenderMarkdown renders a run summary as Markdown.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	p := r.Performance

	// Header
	title := r.Name
	if title == "" {
		title = "Backtest"
	}
	sb.WriteString(fmt.Sprintf("# %s: %s\n\n", title, r.Market))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.Filter != "" {
		sb.WriteString(fmt.Sprintf("Filter: `%s`\n\n", r.Filter))
	}

	// Configuration
	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Parameter | Value |\n")
	sb.WriteString("|-----------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Initial Capital | %s |\n", money(r.Config.InitialCapital)))
	sb.WriteString(fmt.Sprintf("| Position Size | %s |\n", percent(r.Config.PositionSizePercent)))
	sb.WriteString(fmt.Sprintf("| Fixed Commission | %s |\n", money(r.Config.FixedCommission)))
	sb.WriteString(fmt.Sprintf("| Variable Fee | %s |\n", percent(r.Config.VariableFee)))
	sb.WriteString(fmt.Sprintf("| Bid/Ask Spread | %s |\n", percent(r.Config.BidAskSpread)))
	sb.WriteString("\n")

	if p == nil || p.NoTrades {
		sb.WriteString("No trades were executed.\n\n")
		writeExclusions(&sb, r)
		return sb.String()
	}

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trades | %d |\n", p.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Days | %d |\n", p.TotalDays))
	sb.WriteString(fmt.Sprintf("| Profitable Days | %d |\n", p.ProfitableDays))
	sb.WriteString(fmt.Sprintf("| Final Capital | %s |\n", money(p.Portfolio.FinalCapital)))
	sb.WriteString(fmt.Sprintf("| Final Performance | %s |\n", percent(p.FinalPerformance)))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %s |\n", percent(p.MaxDrawdown)))
	sb.WriteString(fmt.Sprintf("| Max Invested | %s |\n", money(p.MaxInvested)))
	sb.WriteString("\n")

	// Trade performance
	sb.WriteString("## Trade Performance\n\n")
	sb.WriteString("| Series | Win Rate | Average | Total | Max Gain | Max Loss |\n")
	sb.WriteString("|--------|----------|---------|-------|----------|----------|\n")
	for _, row := range []struct {
		name string
		m    domain.SeriesMetrics
	}{
		{"Raw", p.RawPerformance},
		{"Net", p.NetPerformance},
	} {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
			row.name, percent(row.m.WinRate), percent(row.m.AvgPerformance), percent(row.m.TotalPerformance),
			percent(row.m.MaxGain), percent(row.m.MaxLoss)))
	}
	sb.WriteString("\n")

	// Costs
	sb.WriteString("## Costs\n\n")
	sb.WriteString("| Side | Commission | Variable | Spread | Total |\n")
	sb.WriteString("|------|------------|----------|--------|-------|\n")
	entry, exit := p.Costs.Breakdown.Entry, p.Costs.Breakdown.Exit
	sb.WriteString(fmt.Sprintf("| Entry | %s | %s | %s | %s |\n",
		money(entry.Commission), money(entry.Variable), money(entry.Spread), money(entry.Total)))
	sb.WriteString(fmt.Sprintf("| Exit | %s | %s | %s | %s |\n",
		money(exit.Commission), money(exit.Variable), money(exit.Spread), money(exit.Total)))
	sb.WriteString(fmt.Sprintf("\nTotal costs: %s (%s per trade)\n\n",
		money(p.Costs.TotalCosts), money(p.Costs.AvgCostPerTrade)))

	writeExclusions(&sb, r)
	return sb.String()
}

func writeExclusions(sb *strings.Builder, r *Report) {
	if len(r.Skipped) == 0 && len(r.Rejected) == 0 {
		return
	}
	sb.WriteString("## Excluded Trades\n\n")
	if len(r.Skipped) > 0 {
		sb.WriteString(fmt.Sprintf("Skipped for insufficient capital: %s\n\n", strings.Join(r.Skipped, ", ")))
	}
	for _, rej := range r.Rejected {
		sb.WriteString(fmt.Sprintf("- `%s` rejected: %s\n", rej.TradeID, rej.Reason))
	}
	if len(r.Rejected) > 0 {
		sb.WriteString("\n")
	}
}

// RenderComparisonMarkdown renders a table of variants side by side.
func RenderComparisonMarkdown(market string, generatedAt time.Time, rows []ComparisonRow) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Comparison: %s\n\n", market))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", generatedAt.Format(time.RFC3339)))

	if len(rows) == 0 {
		sb.WriteString("No variants.\n")
		return sb.String()
	}

	sb.WriteString("| Variant | Position Size | Trades | Final Capital | Performance | Max Drawdown | Costs | Skipped |\n")
	sb.WriteString("|---------|---------------|--------|---------------|-------------|--------------|-------|---------|\n")
	for _, r := range rows {
		p := r.Report
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s | %s | %s | %d |\n",
			r.Name, percent(r.Config.PositionSizePercent), p.TotalTrades,
			money(p.Portfolio.FinalCapital), percent(p.FinalPerformance), percent(p.MaxDrawdown),
			money(p.TotalCosts), p.SkippedTrades))
	}
	sb.WriteString("\n")
	return sb.String()
}
