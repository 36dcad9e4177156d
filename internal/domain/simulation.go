package domain

import "time"

// DailySnapshot is the portfolio state at the end of one calendar day.
// Corresponds to the daily_snapshots table.
type DailySnapshot struct {
	Date             time.Time `json:"-"`
	AvailableCapital float64   `json:"available_capital"`
	InvestedCapital  float64   `json:"invested_capital"`
	TotalCapital     float64   `json:"total_capital"` // available + invested
	DailyPnL         float64   `json:"daily_pnl"`
	DailyCosts       float64   `json:"daily_costs"` // entry + exit costs paid that day
	ActivePositions  int       `json:"active_positions"`

	// Running values over the day sequence
	CumulativePnL   float64 `json:"cumulative_pnl"`
	CumulativeCosts float64 `json:"cumulative_costs"`
	NetPerformance  float64 `json:"net_performance"` // cumulative_pnl - cumulative_costs
	PerformancePct  float64 `json:"performance_pct"` // net_performance / initial_capital
}

// DateKey returns the ISO date the snapshot is keyed by.
func (s DailySnapshot) DateKey() string {
	return s.Date.Format(DateLayout)
}

// TradePerformance is the outcome of one executed (opened and closed) trade.
type TradePerformance struct {
	TradeID        string  `json:"trade_id"`
	RawPerformance float64 `json:"raw_performance"` // sign-adjusted price return
	CostImpact     float64 `json:"cost_impact"`     // total costs / nominal position size
	NetPerformance float64 `json:"net_performance"` // raw - cost_impact
}

// TradeCost is the cost record of one executed trade.
type TradeCost struct {
	TradeID string        `json:"trade_id"`
	Entry   CostBreakdown `json:"entry"`
	Exit    CostBreakdown `json:"exit"`
	Total   float64       `json:"total"`
}

// SimulationResult is everything one engine run produces.
type SimulationResult struct {
	Timeseries   []DailySnapshot
	Performances []TradePerformance
	Costs        []TradeCost

	// Skipped holds trades not opened because capital could not cover the position or its fees.
	Skipped []string
	// Rejected holds rows that failed validation and never entered the simulation.
	Rejected []RejectedTrade
}

// Empty reports whether the run simulated no days.
func (r *SimulationResult) Empty() bool {
	return r == nil || len(r.Timeseries) == 0
}
