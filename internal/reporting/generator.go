package reporting

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
)

// Export file names written by Generator.WriteFiles.
const (
	FileTimeseries = "timeseries.csv"
	FileTrades     = "trades.csv"
	FileCosts      = "costs.csv"
	FileSummary    = "summary.md"
	FileComparison = "comparison.csv"
)

// Generator builds reports and writes them to disk.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Build assembles a report from one run.
func (g *Generator) Build(name, market, filter string, cfg config.Trading, res *domain.SimulationResult, perf *domain.PerformanceReport) *Report {
	r := &Report{
		GeneratedAt: g.now(),
		Name:        name,
		Market:      market,
		Filter:      filter,
		Config:      cfg,
		Performance: perf,
	}
	if res != nil {
		r.Timeseries = res.Timeseries
		r.Performances = res.Performances
		r.Costs = res.Costs
		r.Skipped = res.Skipped
		r.Rejected = res.Rejected
	}
	return r
}

// WriteFiles writes the timeseries, trade, and cost tables plus the Markdown summary into dir.
// It returns the written paths in that order.
func (g *Generator) WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{FileTimeseries, func(w io.Writer) error { return WriteTimeseriesCSV(w, r.Timeseries) }},
		{FileTrades, func(w io.Writer) error { return WriteTradesCSV(w, r.Performances) }},
		{FileCosts, func(w io.Writer) error { return WriteCostsCSV(w, r.Costs) }},
		{FileSummary, func(w io.Writer) error {
			_, err := io.WriteString(w, RenderMarkdown(r))
			return err
		}},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeFile(path, f.write); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteComparison writes the comparison table as CSV and Markdown into dir.
func (g *Generator) WriteComparison(dir, market string, rows []ComparisonRow) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	csvPath := filepath.Join(dir, FileComparison)
	if err := writeFile(csvPath, func(w io.Writer) error { return WriteComparisonCSV(w, rows) }); err != nil {
		return nil, err
	}
	mdPath := filepath.Join(dir, FileSummary)
	md := RenderComparisonMarkdown(market, g.now(), rows)
	if err := writeFile(mdPath, func(w io.Writer) error {
		_, err := io.WriteString(w, md)
		return err
	}); err != nil {
		return nil, err
	}
	return []string{csvPath, mdPath}, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return fmt.Errorf("render %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
