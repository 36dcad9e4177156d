package simulation

import "pairs-backtest-lab/internal/domain"

// positionBook owns the open positions of one run, keyed by trade ID.
type positionBook struct {
	open map[string]*domain.OpenPosition
}

func newPositionBook() *positionBook {
	return &positionBook{open: make(map[string]*domain.OpenPosition)}
}

func (b *positionBook) add(p *domain.OpenPosition) {
	b.open[p.TradeID] = p
}

func (b *positionBook) get(tradeID string) (*domain.OpenPosition, bool) {
	p, ok := b.open[tradeID]
	return p, ok
}

func (b *positionBook) remove(tradeID string) {
	delete(b.open, tradeID)
}

func (b *positionBook) len() int {
	return len(b.open)
}
