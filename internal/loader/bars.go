package loader

import (
	"fmt"
	"io"

	"pairs-backtest-lab/internal/domain"
)

// BarFile is the parsed content of a market data file.
type BarFile struct {
	Bars   []*domain.MarketBar
	Errors []RowError
}

// ReadBars parses a long-format market data file (one row per symbol and date).
// Only date, symbol and close are required; missing open, high and low default to close.
func ReadBars(r io.Reader, market string) (*BarFile, error) {
	cr := newCSVReader(r)
	h, err := readHeader(cr, "date", "symbol", "close")
	if err != nil {
		return nil, err
	}

	out := &BarFile{Bars: []*domain.MarketBar{}}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			out.Errors = append(out.Errors, RowError{Line: line, Reason: err.Error()})
			continue
		}

		b, err := parseBar(h, rec, market)
		if err != nil {
			out.Errors = append(out.Errors, RowError{Line: line, Reason: err.Error()})
			continue
		}
		out.Bars = append(out.Bars, b)
	}
	return out, nil
}

// ReadBarsFile opens path and parses it with ReadBars.
func ReadBarsFile(path, market string) (*BarFile, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadBars(f, market)
}

func parseBar(h header, rec []string, market string) (*domain.MarketBar, error) {
	b := &domain.MarketBar{Market: market, Symbol: h.get(rec, "symbol")}
	if b.Symbol == "" {
		return nil, fmt.Errorf("symbol is empty")
	}

	date, err := ParseTime(h.get(rec, "date"))
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	b.Date = domain.Day(date)

	if b.Close, err = parseFloat("close", h.get(rec, "close")); err != nil {
		return nil, err
	}
	b.Open, b.High, b.Low = b.Close, b.Close, b.Close

	optional := []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open},
		{"high", &b.High},
		{"low", &b.Low},
		{"volume", &b.Volume},
	}
	for _, o := range optional {
		s := h.get(rec, o.name)
		if s == "" {
			continue
		}
		if *o.dst, err = parseFloat(o.name, s); err != nil {
			return nil, err
		}
	}
	return b, nil
}
