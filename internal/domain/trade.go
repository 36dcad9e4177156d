package domain

import (
	"fmt"
	"time"
)

// PositionType is the direction of a trade.
type PositionType string

// Position types
const (
	PositionLong  PositionType = "long"
	PositionShort PositionType = "short"
)

// Valid reports whether p is a known position type.
func (p PositionType) Valid() bool {
	return p == PositionLong || p == PositionShort
}

// Trade is one row of a strategy's trade table.
// Corresponds to the trades table; immutable once loaded.
type Trade struct {
	TradeID      string       // row identifier, unique within a trade table
	Market       string       // market name, e.g. FTSE100
	Symbol       string       // traded symbol
	PairedSymbol string       // other leg of a pair trade (empty for single-symbol trades)
	EntryDate    time.Time    // entry timestamp, only the calendar day is used by the engine
	EntryPrice   float64      // > 0
	ExitDate     time.Time    // exit timestamp, calendar day >= entry day
	ExitPrice    float64      // > 0
	PositionType PositionType // long | short
	Window       *int         // optional grouping tag (lookback period)
}

// Validate checks the row-level invariants of a trade.
// A trade failing validation is rejected by the engine rather than aborting the run.
func (t *Trade) Validate() error {
	if t.EntryPrice <= 0 {
		return fmt.Errorf("entry_price must be > 0, got %v", t.EntryPrice)
	}
	if t.ExitPrice <= 0 {
		return fmt.Errorf("exit_price must be > 0, got %v", t.ExitPrice)
	}
	if t.EntryDate.IsZero() || t.ExitDate.IsZero() {
		return fmt.Errorf("entry_date and exit_date are required")
	}
	if Day(t.ExitDate).Before(Day(t.EntryDate)) {
		return fmt.Errorf("exit_date %s before entry_date %s",
			Day(t.ExitDate).Format(DateLayout), Day(t.EntryDate).Format(DateLayout))
	}
	if !t.PositionType.Valid() {
		return fmt.Errorf("unknown position_type %q", t.PositionType)
	}
	return nil
}

// Pair returns the trade's symbols in sorted order.
// Single-symbol trades return the symbol and an empty string.
func (t *Trade) Pair() [2]string {
	a, b := t.Symbol, t.PairedSymbol
	if b != "" && b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// RawPerformance returns the price return of the trade, signed so that
// a positive value means the position direction was correct.
func RawPerformance(positionType PositionType, entryPrice, exitPrice float64) float64 {
	if positionType == PositionShort {
		return (entryPrice - exitPrice) / entryPrice
	}
	return (exitPrice - entryPrice) / entryPrice
}

// RejectedTrade records a trade row that failed validation.
type RejectedTrade struct {
	TradeID string `json:"trade_id"`
	Reason  string `json:"reason"`
}
