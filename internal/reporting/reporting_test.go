package reporting

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/metrics"
	"pairs-backtest-lab/internal/simulation"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func buildReport(t *testing.T, trades ...domain.Trade) *Report {
	t.Helper()
	cfg := config.DefaultTrading()
	res, err := simulation.Simulate(trades, cfg)
	require.NoError(t, err)
	perf := metrics.Aggregate(res, cfg)
	return NewGenerator().WithClock(func() time.Time { return fixedNow }).
		Build("baseline", "FTSE100", "symbol=VOD", cfg, res, perf)
}

func sampleTrades() []domain.Trade {
	return []domain.Trade{
		{TradeID: "t1", Symbol: "VOD", EntryDate: day(0), EntryPrice: 100, ExitDate: day(2), ExitPrice: 110, PositionType: domain.PositionLong},
		{TradeID: "bad", Symbol: "VOD", EntryDate: day(0), EntryPrice: 0, ExitDate: day(1), ExitPrice: 1, PositionType: domain.PositionLong},
	}
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	rows, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteTimeseriesCSV(t *testing.T) {
	r := buildReport(t, sampleTrades()...)

	var buf bytes.Buffer
	require.NoError(t, WriteTimeseriesCSV(&buf, r.Timeseries))

	rows := readCSV(t, buf.String())
	require.Len(t, rows, 4) // header + 3 days
	assert.Equal(t, "date", rows[0][0])
	assert.Equal(t, "2024-01-01", rows[1][0])
	assert.Equal(t, "1", rows[1][6])
	assert.Equal(t, "0", rows[3][6])
	assert.Equal(t, "1000.00", rows[1][2]) // invested
}

func TestWriteTradesAndCostsCSV(t *testing.T) {
	r := buildReport(t, sampleTrades()...)

	var trades, costs bytes.Buffer
	require.NoError(t, WriteTradesCSV(&trades, r.Performances))
	require.NoError(t, WriteCostsCSV(&costs, r.Costs))

	tr := readCSV(t, trades.String())
	require.Len(t, tr, 2)
	assert.Equal(t, []string{"t1", "0.100000"}, tr[1][:2])

	cr := readCSV(t, costs.String())
	require.Len(t, cr, 2)
	assert.Equal(t, "1.00", cr[1][1]) // entry commission
	assert.Equal(t, "0.18", cr[1][2]) // 1000 * 0.00018
	assert.Equal(t, "1.00", cr[1][3]) // 1000 * 0.001
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(buildReport(t, sampleTrades()...))

	assert.Contains(t, md, "# baseline: FTSE100")
	assert.Contains(t, md, "Generated: 2024-06-01T12:00:00Z")
	assert.Contains(t, md, "Filter: `symbol=VOD`")
	assert.Contains(t, md, "| Position Size | 1.00% |")
	assert.Contains(t, md, "| Trades | 1 |")
	assert.Contains(t, md, "| Entry | 1.00 | 0.18 | 1.00 | 2.18 |")
	assert.Contains(t, md, "`bad` rejected")
}

func TestRenderMarkdown_NoTrades(t *testing.T) {
	md := RenderMarkdown(buildReport(t))
	assert.Contains(t, md, "No trades were executed.")
	assert.NotContains(t, md, "## Summary")
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	g := NewGenerator().WithClock(func() time.Time { return fixedNow })

	paths, err := g.WriteFiles(dir, buildReport(t, sampleTrades()...))
	require.NoError(t, err)
	require.Len(t, paths, 4)

	for _, name := range []string{FileTimeseries, FileTrades, FileCosts, FileSummary} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestWriteComparison(t *testing.T) {
	r := buildReport(t, sampleTrades()...)
	rows := []ComparisonRow{{Name: "baseline", Config: r.Config, Report: r.Performance}}

	var buf bytes.Buffer
	require.NoError(t, WriteComparisonCSV(&buf, rows))
	csvRows := readCSV(t, buf.String())
	require.Len(t, csvRows, 2)
	assert.Equal(t, "baseline", csvRows[1][0])
	assert.Equal(t, "1", csvRows[1][2])

	md := RenderComparisonMarkdown("FTSE100", fixedNow, rows)
	assert.Contains(t, md, "| baseline | 1.00% | 1 |")

	paths, err := NewGenerator().WriteComparison(t.TempDir(), "FTSE100", rows)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1234.57", money(1234.5678))
	assert.Equal(t, "-0.50", money(-0.5))
	assert.Equal(t, "12.35%", percent(0.12345))
	assert.Equal(t, "0.333333", ratio(1.0/3))
}
