package domain

// CostBreakdown itemizes the transaction cost of one side of a trade.
type CostBreakdown struct {
	Commission float64 `json:"commission"` // fixed fee
	Variable   float64 `json:"variable"`   // notional * variable_fee
	Spread     float64 `json:"spread"`     // notional * bid_ask_spread
}

// Total returns the sum of the three cost components.
func (c CostBreakdown) Total() float64 {
	return c.Commission + c.Variable + c.Spread
}

// Add returns the component-wise sum of c and o.
func (c CostBreakdown) Add(o CostBreakdown) CostBreakdown {
	return CostBreakdown{
		Commission: c.Commission + o.Commission,
		Variable:   c.Variable + o.Variable,
		Spread:     c.Spread + o.Spread,
	}
}

// OpenPosition is capital committed to one trade between its entry and exit day.
type OpenPosition struct {
	TradeID      string
	Units        float64 // position_size / entry_price
	PositionSize float64 // capital committed at entry
	EntryPrice   float64
	PositionType PositionType
	EntryCosts   CostBreakdown
}
