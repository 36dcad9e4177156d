// Package costs implements the transaction cost model applied to each side of a trade.
package costs

import (
	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
)

// Side returns the cost of one entry or exit against the given notional:
// fixed_commission + notional*variable_fee + notional*bid_ask_spread.
func Side(notional float64, cfg config.Trading) float64 {
	return cfg.FixedCommission + notional*cfg.VariableFee + notional*cfg.BidAskSpread
}

// Calculate returns the entry cost (against positionSize) and the exit cost (against exitValue).
// Exit value is units * exit_price, so the two sides differ whenever the price moved.
func Calculate(positionSize, exitValue float64, cfg config.Trading) (entry, exit float64) {
	return Side(positionSize, cfg), Side(exitValue, cfg)
}

// Itemize splits the cost of one side into its components.
func Itemize(notional float64, cfg config.Trading) domain.CostBreakdown {
	return domain.CostBreakdown{
		Commission: cfg.FixedCommission,
		Variable:   notional * cfg.VariableFee,
		Spread:     notional * cfg.BidAskSpread,
	}
}
