package query

import (
	"sort"
	"time"

	"pairs-backtest-lab/internal/domain"
)

// Exit types of a trade by the sign of its raw performance.
const (
	ExitProfit    = "profit"
	ExitBreakEven = "break-even"
	ExitLoss      = "loss"
)

// SymbolTrade is a trade of one symbol with its price performance.
type SymbolTrade struct {
	TradeID      string              `json:"trade_id"`
	Symbol       string              `json:"symbol"`
	PairedSymbol string              `json:"paired_symbol"`
	EntryDate    time.Time           `json:"entry_date"`
	EntryPrice   float64             `json:"entry_price"`
	ExitDate     time.Time           `json:"exit_date"`
	ExitPrice    float64             `json:"exit_price"`
	PositionType domain.PositionType `json:"position_type"`
	Performance  float64             `json:"performance"`
	ExitType     string              `json:"exit_type"`
	Window       *int                `json:"window,omitempty"`
}

// PairCount is the number of trades of one pair.
type PairCount struct {
	Pair   [2]string `json:"pair"`
	Trades int       `json:"trades"`
}

// WindowPairs summarizes the pairs traded in one window.
type WindowPairs struct {
	Pairs       []PairCount `json:"pairs"`
	TotalPairs  int         `json:"total_pairs"`
	TotalTrades int         `json:"total_trades"`
}

// Symbols returns the distinct symbols of bars in first-seen order.
func Symbols(bars []*domain.MarketBar) []string {
	seen := make(map[string]struct{})
	symbols := []string{}
	for _, b := range bars {
		if _, ok := seen[b.Symbol]; ok {
			continue
		}
		seen[b.Symbol] = struct{}{}
		symbols = append(symbols, b.Symbol)
	}
	return symbols
}

// SymbolTimeseries returns the bars of symbol ordered by date.
func SymbolTimeseries(bars []*domain.MarketBar, symbol string) []*domain.MarketBar {
	out := []*domain.MarketBar{}
	for _, b := range bars {
		if b.Symbol == symbol {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// MarketIndex computes an equal-weight index of the market: for every date,
// the mean over the symbols quoted that day of close / first close, times 100.
func MarketIndex(bars []*domain.MarketBar) []domain.IndexPoint {
	sorted := append([]*domain.MarketBar(nil), bars...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	first := make(map[string]float64)
	type acc struct {
		sum float64
		n   int
	}
	var dates []time.Time
	byDate := make(map[time.Time]*acc)
	type quote struct {
		day    time.Time
		symbol string
	}
	counted := make(map[quote]struct{})

	for _, b := range sorted {
		day := domain.Day(b.Date)
		if _, ok := first[b.Symbol]; !ok {
			first[b.Symbol] = b.Close
		}
		// one quote per symbol per day; the first one wins
		key := quote{day, b.Symbol}
		if _, dup := counted[key]; dup {
			continue
		}
		counted[key] = struct{}{}

		a, ok := byDate[day]
		if !ok {
			a = &acc{}
			byDate[day] = a
			dates = append(dates, day)
		}
		if base := first[b.Symbol]; base != 0 {
			a.sum += b.Close / base
			a.n++
		}
	}

	points := make([]domain.IndexPoint, 0, len(dates))
	for _, d := range dates {
		a := byDate[d]
		if a.n == 0 {
			continue
		}
		points = append(points, domain.IndexPoint{Date: d, Index: a.sum / float64(a.n) * 100})
	}
	return points
}

// SymbolTrades returns the trades of symbol in table order with their performance.
func SymbolTrades(trades []*domain.Trade, symbol string) []SymbolTrade {
	out := []SymbolTrade{}
	for _, t := range trades {
		if t.Symbol == symbol {
			out = append(out, describe(t))
		}
	}
	return out
}

// Describe returns every trade with its performance, in order.
func Describe(trades []domain.Trade) []SymbolTrade {
	out := make([]SymbolTrade, len(trades))
	for i := range trades {
		out[i] = describe(&trades[i])
	}
	return out
}

func describe(t *domain.Trade) SymbolTrade {
	perf := domain.RawPerformance(t.PositionType, t.EntryPrice, t.ExitPrice)
	return SymbolTrade{
		TradeID:      t.TradeID,
		Symbol:       t.Symbol,
		PairedSymbol: t.PairedSymbol,
		EntryDate:    t.EntryDate,
		EntryPrice:   t.EntryPrice,
		ExitDate:     t.ExitDate,
		ExitPrice:    t.ExitPrice,
		PositionType: t.PositionType,
		Performance:  perf,
		ExitType:     exitType(perf),
		Window:       t.Window,
	}
}

func exitType(perf float64) string {
	switch {
	case perf > 0:
		return ExitProfit
	case perf == 0:
		return ExitBreakEven
	default:
		return ExitLoss
	}
}

// Windows returns the distinct windows of trades in ascending order.
// Trades without a window are ignored.
func Windows(trades []*domain.Trade) []int {
	seen := make(map[int]struct{})
	windows := []int{}
	for _, t := range trades {
		if t.Window == nil {
			continue
		}
		if _, ok := seen[*t.Window]; ok {
			continue
		}
		seen[*t.Window] = struct{}{}
		windows = append(windows, *t.Window)
	}
	sort.Ints(windows)
	return windows
}

// PairsByWindow counts trades per pair for each window, or only for window when set.
// Pairs are listed in order of their first trade by entry date.
func PairsByWindow(trades []*domain.Trade, window *int) map[int]WindowPairs {
	sorted := make([]*domain.Trade, 0, len(trades))
	for _, t := range trades {
		if t.Window != nil {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if *sorted[i].Window != *sorted[j].Window {
			return *sorted[i].Window < *sorted[j].Window
		}
		return sorted[i].EntryDate.Before(sorted[j].EntryDate)
	})

	windows := Windows(trades)
	if window != nil {
		windows = []int{*window}
	}

	result := make(map[int]WindowPairs, len(windows))
	for _, w := range windows {
		counts := make(map[[2]string]int)
		var order [][2]string
		for _, t := range sorted {
			if *t.Window != w {
				continue
			}
			p := t.Pair()
			if _, ok := counts[p]; !ok {
				order = append(order, p)
			}
			counts[p]++
		}

		wp := WindowPairs{Pairs: make([]PairCount, 0, len(order))}
		for _, p := range order {
			wp.Pairs = append(wp.Pairs, PairCount{Pair: p, Trades: counts[p]})
			wp.TotalTrades += counts[p]
		}
		wp.TotalPairs = len(wp.Pairs)
		result[w] = wp
	}
	return result
}
