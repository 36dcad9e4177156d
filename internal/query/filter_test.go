package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pairs-backtest-lab/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func intPtr(v int) *int { return &v }

func pairTrade(id, symbol, paired string, window *int, entry, exit int, entryPrice, exitPrice float64) *domain.Trade {
	return &domain.Trade{
		TradeID:      id,
		Market:       "FTSE100",
		Symbol:       symbol,
		PairedSymbol: paired,
		EntryDate:    day(entry),
		EntryPrice:   entryPrice,
		ExitDate:     day(exit),
		ExitPrice:    exitPrice,
		PositionType: domain.PositionLong,
		Window:       window,
	}
}

func fixtureTrades() []*domain.Trade {
	return []*domain.Trade{
		pairTrade("t1", "VOD", "BP", intPtr(20), 0, 2, 100, 110),
		pairTrade("t2", "BP", "VOD", intPtr(20), 1, 3, 50, 45),
		pairTrade("t3", "HSBA", "BARC", intPtr(60), 2, 4, 10, 10),
		pairTrade("t4", "VOD", "HSBA", nil, 5, 6, 100, 90),
	}
}

func ids(trades []domain.Trade) []string {
	out := make([]string, len(trades))
	for i, t := range trades {
		out[i] = t.TradeID
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	trades := fixtureTrades()

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero", Filter{}, []string{"t1", "t2", "t3", "t4"}},
		{"symbol", Filter{Symbol: "VOD"}, []string{"t1", "t4"}},
		{"pair either order", Filter{Pair: [2]string{"VOD", "BP"}}, []string{"t1", "t2"}},
		{"pair reversed", Filter{Pair: [2]string{"BP", "VOD"}}, []string{"t1", "t2"}},
		{"window", Filter{Window: intPtr(60)}, []string{"t3"}},
		{"window excludes untagged", Filter{Window: intPtr(0)}, []string{}},
		{"symbol and window", Filter{Symbol: "VOD", Window: intPtr(20)}, []string{"t1"}},
		{"from", Filter{From: day(2)}, []string{"t3", "t4"}},
		{"to", Filter{To: day(1)}, []string{"t1", "t2"}},
		{"range", Filter{From: day(1), To: day(2)}, []string{"t2", "t3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(tt.filter.Apply(trades)))
		})
	}
}

func TestFilter_ApplyReturnsCopies(t *testing.T) {
	trades := fixtureTrades()
	out := Filter{}.Apply(trades)
	out[0].Symbol = "CHANGED"
	assert.Equal(t, "VOD", trades[0].Symbol)
}

func TestFilter_IsZeroAndString(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.Equal(t, "", Filter{}.String())

	f := Filter{Symbol: "VOD", Pair: [2]string{"VOD", "BP"}, Window: intPtr(20), From: day(0), To: day(9)}
	assert.False(t, f.IsZero())
	assert.Equal(t, "symbol=VOD pair=BP/VOD window=20 from=2024-01-01 to=2024-01-10", f.String())
}
