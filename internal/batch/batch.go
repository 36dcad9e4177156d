// Package batch runs independent simulations in parallel.
package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/metrics"
	"pairs-backtest-lab/internal/simulation"
)

// DefaultParallelism bounds concurrent runs when the caller passes <= 0.
const DefaultParallelism = 4

// Job is one named simulation over a trade table.
type Job struct {
	Name   string
	Config config.Trading
	Trades []domain.Trade
}

// Result is the outcome of one Job.
type Result struct {
	Name     string
	Config   config.Trading
	Result   *domain.SimulationResult
	Report   *domain.PerformanceReport
	Duration time.Duration
}

// Run simulates every job on at most parallelism goroutines and returns
// results in job order. Every configuration is validated before any job starts.
// Jobs share no state; each gets its own engine.
func Run(ctx context.Context, jobs []Job, parallelism int) ([]Result, error) {
	engines := make([]*simulation.Engine, len(jobs))
	for i, job := range jobs {
		e, err := simulation.New(job.Config)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", job.Name, err)
		}
		engines[i] = e
	}

	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}

	results := make([]Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i := range jobs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			res := engines[i].Run(jobs[i].Trades)
			results[i] = Result{
				Name:     jobs[i].Name,
				Config:   jobs[i].Config,
				Result:   res,
				Report:   metrics.Aggregate(res, jobs[i].Config),
				Duration: time.Since(start),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
