// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run statuses
const (
	StatusOK       = "ok"
	StatusNoTrades = "no_trades"
	StatusError    = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Simulation metrics
	RunsTotal         *prometheus.CounterVec
	RunDuration       *prometheus.HistogramVec
	TradesExecuted    prometheus.Counter
	TradesSkipped     prometheus.Counter
	RowsRejected      prometheus.Counter
	LastSuccessfulRun prometheus.Gauge

	// Ingest metrics
	RowsIngested *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	StreamClients       prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "pairs_backtest"
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_total",
			Help:      "Total number of simulation runs by scope and status",
		}, []string{"scope", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "run_duration_seconds",
			Help:      "Simulation plus aggregation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"scope"}),
		TradesExecuted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_executed_total",
			Help:      "Total number of trades opened and closed",
		}),
		TradesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "trades_skipped_total",
			Help:      "Total number of trades skipped for insufficient capital",
		}),
		RowsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "rows_rejected_total",
			Help:      "Total number of trade rows rejected by validation",
		}),
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful simulation run",
		}),

		RowsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rows_total",
			Help:      "Total number of rows ingested by kind",
		}, []string{"kind"}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		StreamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "stream_clients",
			Help:      "Number of connected timeseries stream clients",
		}),

		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"store", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordRun records one simulation run and its trade counts.
func RecordRun(scope, status string, d time.Duration, executed, skipped, rejected int) {
	DefaultMetrics.RunsTotal.WithLabelValues(scope, status).Inc()
	DefaultMetrics.RunDuration.WithLabelValues(scope).Observe(d.Seconds())
	DefaultMetrics.TradesExecuted.Add(float64(executed))
	DefaultMetrics.TradesSkipped.Add(float64(skipped))
	DefaultMetrics.RowsRejected.Add(float64(rejected))
	if status != StatusError {
		DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordIngest records rows written by the ingest command.
func RecordIngest(kind string, rows int) {
	DefaultMetrics.RowsIngested.WithLabelValues(kind).Add(float64(rows))
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, route string, code int, d time.Duration) {
	DefaultMetrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// StreamOpened increments the stream client gauge.
func StreamOpened() { DefaultMetrics.StreamClients.Inc() }

// StreamClosed decrements the stream client gauge.
func StreamClosed() { DefaultMetrics.StreamClients.Dec() }

// RecordDBQuery records database query metrics.
func RecordDBQuery(store, operation string, d time.Duration, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(store, operation).Observe(d.Seconds())
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(store, operation).Inc()
	}
}
