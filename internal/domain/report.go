package domain

// SeriesMetrics summarizes a series of per-trade performance values.
type SeriesMetrics struct {
	TotalTrades      int     `json:"total_trades"`
	ProfitableTrades int     `json:"profitable_trades"`
	TotalPerformance float64 `json:"total_performance"`
	AvgPerformance   float64 `json:"avg_performance"`
	MaxGain          float64 `json:"max_gain"`
	MaxLoss          float64 `json:"max_loss"`
	WinRate          float64 `json:"win_rate"`
}

// CostSideBreakdown sums one side (entry or exit) of all trade cost records.
type CostSideBreakdown struct {
	Commission float64 `json:"commission"`
	Variable   float64 `json:"variable"`
	Spread     float64 `json:"spread"`
	Total      float64 `json:"total"`
}

// CostReport is the cost section of a performance report.
type CostReport struct {
	TotalCosts      float64   `json:"total_costs"`
	AvgCostPerTrade float64   `json:"avg_cost_per_trade"`
	Breakdown       CostSides `json:"breakdown"`
}

// CostSides pairs the entry and exit cost breakdowns.
type CostSides struct {
	Entry CostSideBreakdown `json:"entry"`
	Exit  CostSideBreakdown `json:"exit"`
}

// PortfolioReport is the capital section of a performance report.
type PortfolioReport struct {
	InitialCapital   float64 `json:"initial_capital"`
	FinalCapital     float64 `json:"final_capital"`
	MaxCapital       float64 `json:"max_capital"`
	MinCapital       float64 `json:"min_capital"`
	CurrentInvested  float64 `json:"current_invested"`
	CurrentAvailable float64 `json:"current_available"`
}

// PerformanceReport is the aggregated result of one simulation run.
type PerformanceReport struct {
	// NoTrades is set when no trade was executed; the remaining sections are then zero-valued.
	NoTrades bool `json:"no_trades"`

	TotalTrades      int     `json:"total_trades"`
	ProfitableDays   int     `json:"profitable_days"`
	TotalDays        int     `json:"total_days"`
	MaxInvested      float64 `json:"max_invested"`
	TotalCosts       float64 `json:"total_costs"`
	FinalPerformance float64 `json:"final_performance"`
	MaxDrawdown      float64 `json:"max_drawdown"` // (min total_capital - initial) / initial

	RawPerformance SeriesMetrics   `json:"raw_performance"`
	NetPerformance SeriesMetrics   `json:"net_performance"`
	Costs          CostReport      `json:"costs"`
	Portfolio      PortfolioReport `json:"portfolio"`

	SkippedTrades  int `json:"skipped_trades"`
	RejectedTrades int `json:"rejected_trades"`
}
