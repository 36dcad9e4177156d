// Package metrics reduces a simulation result into a performance report.
package metrics

import (
	"errors"
	"math"

	"pairs-backtest-lab/internal/domain"
)

// ErrNoTrades is returned when a metric series is empty.
var ErrNoTrades = errors.New("no trades available for metrics")

// CalculateMetrics summarizes a series of per-trade performance values.
// Returns ErrNoTrades if the series is empty.
func CalculateMetrics(series []float64) (domain.SeriesMetrics, error) {
	n := len(series)
	if n == 0 {
		return domain.SeriesMetrics{}, ErrNoTrades
	}

	profitable := 0
	maxGain, maxLoss := math.Inf(-1), math.Inf(1)
	for _, v := range series {
		if v > 0 {
			profitable++
		}
		maxGain = math.Max(maxGain, v)
		maxLoss = math.Min(maxLoss, v)
	}

	total := computeSum(series)
	return domain.SeriesMetrics{
		TotalTrades:      n,
		ProfitableTrades: profitable,
		TotalPerformance: total,
		AvgPerformance:   total / float64(n),
		MaxGain:          maxGain,
		MaxLoss:          maxLoss,
		WinRate:          computeWinRate(profitable, n),
	}, nil
}

// computeSum returns the sum of values.
func computeSum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// computeWinRate returns wins / total.
func computeWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// rawSeries extracts raw performance values in record order.
func rawSeries(perfs []domain.TradePerformance) []float64 {
	out := make([]float64, len(perfs))
	for i, p := range perfs {
		out[i] = p.RawPerformance
	}
	return out
}

// netSeries extracts net performance values in record order.
func netSeries(perfs []domain.TradePerformance) []float64 {
	out := make([]float64, len(perfs))
	for i, p := range perfs {
		out[i] = p.NetPerformance
	}
	return out
}
