package loader

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/idhash"
)

// Trade table columns. trade_id, paired_symbol and window are optional.
const (
	colTradeID      = "trade_id"
	colSymbol       = "symbol"
	colPairedSymbol = "paired_symbol"
	colEntryDate    = "entry_date"
	colEntryPrice   = "entry_price"
	colExitDate     = "exit_date"
	colExitPrice    = "exit_price"
	colPositionType = "position_type"
	colWindow       = "window"
)

// TradeFile is the parsed content of a trade table.
type TradeFile struct {
	Trades []*domain.Trade
	Errors []RowError // rows that could not be parsed
}

// ReadTrades parses a trade table for market. Rows that fail to parse are
// reported in Errors and left out; price and date consistency is checked by the engine.
// Rows without a trade_id get a deterministic one derived from their content and row index.
func ReadTrades(r io.Reader, market string) (*TradeFile, error) {
	cr := newCSVReader(r)
	h, err := readHeader(cr, colSymbol, colEntryDate, colEntryPrice, colExitDate, colExitPrice, colPositionType)
	if err != nil {
		return nil, err
	}

	out := &TradeFile{Trades: []*domain.Trade{}}
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line := row + 2
		if err != nil {
			out.Errors = append(out.Errors, RowError{Line: line, Reason: err.Error()})
			continue
		}

		t, err := parseTrade(h, rec, market, row)
		if err != nil {
			out.Errors = append(out.Errors, RowError{Line: line, Reason: err.Error()})
			continue
		}
		out.Trades = append(out.Trades, t)
	}
	return out, nil
}

// ReadTradesFile opens path and parses it with ReadTrades.
func ReadTradesFile(path, market string) (*TradeFile, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTrades(f, market)
}

func parseTrade(h header, rec []string, market string, row int) (*domain.Trade, error) {
	t := &domain.Trade{
		TradeID:      h.get(rec, colTradeID),
		Market:       market,
		Symbol:       h.get(rec, colSymbol),
		PairedSymbol: h.get(rec, colPairedSymbol),
		PositionType: domain.PositionType(strings.ToLower(h.get(rec, colPositionType))),
	}
	if t.Symbol == "" {
		return nil, fmt.Errorf("%s is empty", colSymbol)
	}

	var err error
	if t.EntryDate, err = ParseTime(h.get(rec, colEntryDate)); err != nil {
		return nil, fmt.Errorf("%s: %w", colEntryDate, err)
	}
	if t.ExitDate, err = ParseTime(h.get(rec, colExitDate)); err != nil {
		return nil, fmt.Errorf("%s: %w", colExitDate, err)
	}
	if t.EntryPrice, err = parseFloat(colEntryPrice, h.get(rec, colEntryPrice)); err != nil {
		return nil, err
	}
	if t.ExitPrice, err = parseFloat(colExitPrice, h.get(rec, colExitPrice)); err != nil {
		return nil, err
	}

	if w := h.get(rec, colWindow); w != "" {
		// parquet exports write integer windows as floats
		f, err := strconv.ParseFloat(w, 64)
		if err != nil || f != float64(int(f)) {
			return nil, fmt.Errorf("%s: invalid integer %q", colWindow, w)
		}
		v := int(f)
		t.Window = &v
	}

	if t.TradeID == "" {
		t.TradeID = idhash.ComputeTradeID(market, t.Symbol, t.PairedSymbol,
			t.EntryDate, t.ExitDate, string(t.PositionType), row)
	}
	return t, nil
}
