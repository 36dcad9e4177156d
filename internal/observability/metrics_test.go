package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics_IsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	m.RunsTotal.WithLabelValues("market", StatusOK).Inc()
	m.TradesSkipped.Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("market", StatusOK)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TradesSkipped))

	n, err := testutil.GatherAndCount(reg, "test_simulation_runs_total")
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.TradesExecuted)
	beforeRuns := testutil.ToFloat64(DefaultMetrics.RunsTotal.WithLabelValues("symbol", StatusNoTrades))

	RecordRun("symbol", StatusNoTrades, 2*time.Millisecond, 4, 1, 2)

	assert.Equal(t, before+4, testutil.ToFloat64(DefaultMetrics.TradesExecuted))
	assert.Equal(t, beforeRuns+1, testutil.ToFloat64(DefaultMetrics.RunsTotal.WithLabelValues("symbol", StatusNoTrades)))
}
