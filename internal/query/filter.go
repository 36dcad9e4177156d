// Package query selects trades and market data for a request and runs the
// simulation and aggregation over the selection.
package query

import (
	"fmt"
	"strings"
	"time"

	"pairs-backtest-lab/internal/domain"
)

// Filter selects trades from a market's trade table. Zero fields match everything.
type Filter struct {
	Symbol string    // trade's own symbol
	Pair   [2]string // both legs, any order
	Window *int      // exact window
	From   time.Time // entry day >= From
	To     time.Time // entry day <= To
}

// IsZero reports whether the filter matches every trade.
func (f Filter) IsZero() bool {
	return f.Symbol == "" && f.Pair == [2]string{} && f.Window == nil && f.From.IsZero() && f.To.IsZero()
}

// Match reports whether t passes the filter.
func (f Filter) Match(t *domain.Trade) bool {
	if f.Symbol != "" && t.Symbol != f.Symbol {
		return false
	}
	if f.Pair != ([2]string{}) && t.Pair() != sortedPair(f.Pair) {
		return false
	}
	if f.Window != nil && (t.Window == nil || *t.Window != *f.Window) {
		return false
	}
	entry := domain.Day(t.EntryDate)
	if !f.From.IsZero() && entry.Before(domain.Day(f.From)) {
		return false
	}
	if !f.To.IsZero() && entry.After(domain.Day(f.To)) {
		return false
	}
	return true
}

// Apply returns the matching trades in their original order.
func (f Filter) Apply(trades []*domain.Trade) []domain.Trade {
	out := make([]domain.Trade, 0, len(trades))
	for _, t := range trades {
		if f.Match(t) {
			out = append(out, *t)
		}
	}
	return out
}

// String describes the filter, e.g. "symbol=VOD window=20". Empty for the zero filter.
func (f Filter) String() string {
	var parts []string
	if f.Symbol != "" {
		parts = append(parts, "symbol="+f.Symbol)
	}
	if f.Pair != ([2]string{}) {
		p := sortedPair(f.Pair)
		parts = append(parts, fmt.Sprintf("pair=%s/%s", p[0], p[1]))
	}
	if f.Window != nil {
		parts = append(parts, fmt.Sprintf("window=%d", *f.Window))
	}
	if !f.From.IsZero() {
		parts = append(parts, "from="+f.From.Format(domain.DateLayout))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to="+f.To.Format(domain.DateLayout))
	}
	return strings.Join(parts, " ")
}

// sortedPair orders a pair the way domain.Trade.Pair does, with an empty leg last.
func sortedPair(p [2]string) [2]string {
	if p[0] == "" || (p[1] != "" && p[1] < p[0]) {
		return [2]string{p[1], p[0]}
	}
	return p
}
