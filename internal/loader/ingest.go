package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"pairs-backtest-lab/internal/observability"
	"pairs-backtest-lab/internal/storage"
)

// DefaultBatchSize is the number of rows written per InsertBulk call.
const DefaultBatchSize = 5000

// Ingest kinds, used as the metrics label.
const (
	KindTrades = "trades"
	KindBars   = "bars"
)

// Ingester loads CSV files into the trade and market data stores.
type Ingester struct {
	trades    storage.TradeStore
	bars      storage.MarketDataStore
	batchSize int
	logger    logrus.FieldLogger
}

// NewIngester creates an Ingester. Either store may be nil if that kind is never ingested.
func NewIngester(trades storage.TradeStore, bars storage.MarketDataStore, logger logrus.FieldLogger) *Ingester {
	return &Ingester{trades: trades, bars: bars, batchSize: DefaultBatchSize, logger: logger}
}

// WithBatchSize sets the number of rows per InsertBulk call.
func (i *Ingester) WithBatchSize(n int) *Ingester {
	if n > 0 {
		i.batchSize = n
	}
	return i
}

// IngestSummary reports the outcome of one file.
type IngestSummary struct {
	Kind     string
	Market   string
	Path     string
	Inserted int
	Errors   []RowError
	Elapsed  time.Duration
}

// IngestTrades parses a trade table and inserts its rows for market.
func (i *Ingester) IngestTrades(ctx context.Context, path, market string) (*IngestSummary, error) {
	if i.trades == nil {
		return nil, fmt.Errorf("ingest trades: no trade store configured")
	}
	start := time.Now()

	file, err := ReadTradesFile(path, market)
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks(file.Trades, i.batchSize) {
		if err := i.trades.InsertBulk(ctx, chunk); err != nil {
			return nil, fmt.Errorf("insert trades from %s: %w", path, err)
		}
	}

	sum := &IngestSummary{Kind: KindTrades, Market: market, Path: path, Inserted: len(file.Trades), Errors: file.Errors, Elapsed: time.Since(start)}
	i.report(sum)
	return sum, nil
}

// IngestBars parses a market data file and inserts its rows for market.
func (i *Ingester) IngestBars(ctx context.Context, path, market string) (*IngestSummary, error) {
	if i.bars == nil {
		return nil, fmt.Errorf("ingest bars: no market data store configured")
	}
	start := time.Now()

	file, err := ReadBarsFile(path, market)
	if err != nil {
		return nil, err
	}
	for _, chunk := range chunks(file.Bars, i.batchSize) {
		if err := i.bars.InsertBulk(ctx, chunk); err != nil {
			return nil, fmt.Errorf("insert bars from %s: %w", path, err)
		}
	}

	sum := &IngestSummary{Kind: KindBars, Market: market, Path: path, Inserted: len(file.Bars), Errors: file.Errors, Elapsed: time.Since(start)}
	i.report(sum)
	return sum, nil
}

func (i *Ingester) report(sum *IngestSummary) {
	observability.RecordIngest(sum.Kind, sum.Inserted)

	entry := i.logger.WithFields(logrus.Fields{
		"kind":     sum.Kind,
		"market":   sum.Market,
		"path":     sum.Path,
		"inserted": sum.Inserted,
		"errors":   len(sum.Errors),
		"elapsed":  sum.Elapsed,
	})
	for _, e := range sum.Errors {
		entry.WithField("line", e.Line).Warn(e.Reason)
	}
	entry.Info("File ingested")
}

func chunks[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for len(items) > 0 {
		n := min(size, len(items))
		out = append(out, items[:n])
		items = items[n:]
	}
	return out
}
