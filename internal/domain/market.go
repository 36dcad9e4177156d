package domain

import "time"

// MarketBar is one daily OHLCV row of a market's price table.
// Corresponds to the market_bars table in ClickHouse.
type MarketBar struct {
	Market string
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IndexPoint is one value of an equal-weight market index.
type IndexPoint struct {
	Date  time.Time `json:"-"`
	Index float64   `json:"index"`
}
