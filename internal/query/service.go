package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"pairs-backtest-lab/internal/batch"
	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/idhash"
	"pairs-backtest-lab/internal/metrics"
	"pairs-backtest-lab/internal/observability"
	"pairs-backtest-lab/internal/simulation"
	"pairs-backtest-lab/internal/storage"
)

// ErrNoTrades is returned when a symbol or pair query matches no trades.
var ErrNoTrades = errors.New("no trades found")

// ErrSymbolNotFound is returned when a market has no bars for a symbol.
var ErrSymbolNotFound = errors.New("symbol not found in market")

// ErrPersistenceDisabled is returned by run journal operations when no RunStore is configured.
var ErrPersistenceDisabled = errors.New("run persistence is not configured")

// Run scopes, used as the metrics scope label.
const (
	ScopeMarket = "market"
	ScopeSymbol = "symbol"
	ScopePair   = "pair"
	ScopeBatch  = "batch"
)

// Options configures a Service.
type Options struct {
	Trades    storage.TradeStore
	Bars      storage.MarketDataStore
	Runs      storage.RunStore      // optional
	Snapshots storage.SnapshotStore // optional
	Registry  *Registry
	Defaults  config.Trading
	Logger    logrus.FieldLogger

	// Parallelism bounds concurrent runs in Compare.
	Parallelism int
}

// Service answers market and backtest queries over the configured stores.
type Service struct {
	trades      storage.TradeStore
	bars        storage.MarketDataStore
	runs        storage.RunStore
	snapshots   storage.SnapshotStore
	registry    *Registry
	defaults    config.Trading
	logger      logrus.FieldLogger
	parallelism int
	now         func() time.Time
}

// Outcome is one simulation run with its report.
type Outcome struct {
	Config config.Trading
	Result *domain.SimulationResult
	Report *domain.PerformanceReport
}

// Variant is one named set of trading overrides in a comparison.
type Variant struct {
	Name      string
	Overrides config.TradingOverrides
}

// Comparison is one variant's outcome.
type Comparison struct {
	Name string
	Outcome
}

// NewService validates opts and creates a Service.
func NewService(opts Options) (*Service, error) {
	if opts.Trades == nil || opts.Bars == nil {
		return nil, errors.New("query service: trade and market data stores are required")
	}
	if err := opts.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("query service defaults: %w", err)
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Service{
		trades:      opts.Trades,
		bars:        opts.Bars,
		runs:        opts.Runs,
		snapshots:   opts.Snapshots,
		registry:    opts.Registry,
		defaults:    opts.Defaults,
		logger:      opts.Logger,
		parallelism: opts.Parallelism,
		now:         time.Now,
	}, nil
}

// Markets returns the configured market names.
func (s *Service) Markets() []string {
	return s.registry.Names()
}

// Defaults returns the default trading configuration.
func (s *Service) Defaults() config.Trading {
	return s.defaults
}

// Symbols returns the symbols quoted in a market.
func (s *Service) Symbols(ctx context.Context, market string) ([]string, error) {
	bars, _, err := s.loadBars(ctx, market)
	if err != nil {
		return nil, err
	}
	return Symbols(bars), nil
}

// SymbolTimeseries returns the daily bars of one symbol.
func (s *Service) SymbolTimeseries(ctx context.Context, market, symbol string) ([]*domain.MarketBar, error) {
	name, err := s.registry.Resolve(market)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	bars, err := s.bars.GetBySymbol(ctx, name, symbol)
	observability.RecordDBQuery("market_data", "get_by_symbol", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("load %s bars for %s: %w", name, symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return bars, nil
}

// MarketIndex returns the equal-weight index of a market.
func (s *Service) MarketIndex(ctx context.Context, market string) ([]domain.IndexPoint, error) {
	bars, _, err := s.loadBars(ctx, market)
	if err != nil {
		return nil, err
	}
	return MarketIndex(bars), nil
}

// SymbolTrades returns the trades of one symbol. Returns ErrNoTrades if there are none.
func (s *Service) SymbolTrades(ctx context.Context, market, symbol string) ([]SymbolTrade, error) {
	trades, _, err := s.loadTrades(ctx, market)
	if err != nil {
		return nil, err
	}
	out := SymbolTrades(trades, symbol)
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: symbol %s", ErrNoTrades, symbol)
	}
	return out, nil
}

// Windows returns the distinct windows of a market's trades.
func (s *Service) Windows(ctx context.Context, market string) ([]int, error) {
	trades, _, err := s.loadTrades(ctx, market)
	if err != nil {
		return nil, err
	}
	return Windows(trades), nil
}

// PairsByWindow returns per-window pair trade counts.
func (s *Service) PairsByWindow(ctx context.Context, market string, window *int) (map[int]WindowPairs, error) {
	trades, _, err := s.loadTrades(ctx, market)
	if err != nil {
		return nil, err
	}
	return PairsByWindow(trades, window), nil
}

// Trades returns the trades of a market that pass f, in table order.
func (s *Service) Trades(ctx context.Context, market string, f Filter) ([]domain.Trade, error) {
	trades, _, err := s.loadTrades(ctx, market)
	if err != nil {
		return nil, err
	}
	return f.Apply(trades), nil
}

// Performance simulates the trades of a market that pass f.
// A filter matching nothing yields an outcome with an empty-state report.
func (s *Service) Performance(ctx context.Context, market string, f Filter, o config.TradingOverrides) (*Outcome, error) {
	return s.perform(ctx, ScopeMarket, market, f, o, false)
}

// SymbolPerformance simulates one symbol's trades, optionally restricted to a window.
// Returns ErrNoTrades if the symbol has no trades.
func (s *Service) SymbolPerformance(ctx context.Context, market, symbol string, window *int, o config.TradingOverrides) (*Outcome, error) {
	return s.perform(ctx, ScopeSymbol, market, Filter{Symbol: symbol, Window: window}, o, true)
}

// PairPerformance simulates one pair's trades, optionally restricted to a window.
// Returns ErrNoTrades if the pair has no trades.
func (s *Service) PairPerformance(ctx context.Context, market, symbol1, symbol2 string, window *int, o config.TradingOverrides) (*Outcome, error) {
	return s.perform(ctx, ScopePair, market, Filter{Pair: [2]string{symbol1, symbol2}, Window: window}, o, true)
}

func (s *Service) perform(ctx context.Context, scope, market string, f Filter, o config.TradingOverrides, requireTrades bool) (*Outcome, error) {
	cfg, err := s.defaults.Merge(o)
	if err != nil {
		return nil, err
	}

	all, name, err := s.loadTrades(ctx, market)
	if err != nil {
		return nil, err
	}
	selected := f.Apply(all)
	if requireTrades && len(selected) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTrades, f)
	}

	start := time.Now()
	res, err := simulation.Simulate(selected, cfg)
	if err != nil {
		observability.RecordRun(scope, observability.StatusError, time.Since(start), 0, 0, 0)
		return nil, err
	}
	report := metrics.Aggregate(res, cfg)
	elapsed := time.Since(start)

	s.logRun(scope, name, f, res, report, elapsed)
	return &Outcome{Config: cfg, Result: res, Report: report}, nil
}

// Compare runs every variant over the same filtered trades in parallel.
// Results are in variant order.
func (s *Service) Compare(ctx context.Context, market string, f Filter, variants []Variant) ([]Comparison, error) {
	selected, err := s.Trades(ctx, market, f)
	if err != nil {
		return nil, err
	}

	jobs := make([]batch.Job, len(variants))
	for i, v := range variants {
		cfg, err := s.defaults.Merge(v.Overrides)
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", v.Name, err)
		}
		jobs[i] = batch.Job{Name: v.Name, Config: cfg, Trades: selected}
	}

	results, err := batch.Run(ctx, jobs, s.parallelism)
	if err != nil {
		return nil, err
	}

	out := make([]Comparison, len(results))
	for i, r := range results {
		s.logRun(ScopeBatch, market, f, r.Result, r.Report, r.Duration)
		out[i] = Comparison{
			Name:    r.Name,
			Outcome: Outcome{Config: r.Config, Result: r.Result, Report: r.Report},
		}
	}
	return out, nil
}

func (s *Service) logRun(scope, market string, f Filter, res *domain.SimulationResult, report *domain.PerformanceReport, elapsed time.Duration) {
	status := observability.StatusOK
	if report.NoTrades {
		status = observability.StatusNoTrades
	}
	observability.RecordRun(scope, status, elapsed, report.TotalTrades, len(res.Skipped), len(res.Rejected))

	entry := s.logger.WithFields(logrus.Fields{
		"scope":    scope,
		"market":   market,
		"filter":   f.String(),
		"days":     report.TotalDays,
		"trades":   report.TotalTrades,
		"skipped":  len(res.Skipped),
		"rejected": len(res.Rejected),
		"elapsed":  elapsed,
	})
	for _, r := range res.Rejected {
		entry.WithFields(logrus.Fields{"trade_id": r.TradeID, "reason": r.Reason}).Warn("Trade row rejected")
	}
	entry.Debug("Simulation complete")
}

// SaveRun journals an outcome and, when a SnapshotStore is configured, its day sequence.
func (s *Service) SaveRun(ctx context.Context, name, market string, f Filter, out *Outcome) (*domain.Run, error) {
	if s.runs == nil {
		return nil, ErrPersistenceDisabled
	}

	cfgJSON, err := json.Marshal(out.Config)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	reportJSON, err := json.Marshal(out.Report)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}

	now := s.now().UTC()
	run := &domain.Run{
		RunID:     idhash.NewRunID(now),
		Name:      name,
		Market:    market,
		Filter:    f.String(),
		Config:    cfgJSON,
		Report:    reportJSON,
		Trades:    out.Report.TotalTrades,
		Skipped:   len(out.Result.Skipped),
		Rejected:  len(out.Result.Rejected),
		CreatedAt: now,
	}

	start := time.Now()
	err = s.runs.Insert(ctx, run)
	observability.RecordDBQuery("runs", "insert", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	if s.snapshots != nil && len(out.Result.Timeseries) > 0 {
		start = time.Now()
		err = s.snapshots.InsertBulk(ctx, run.RunID, out.Result.Timeseries)
		observability.RecordDBQuery("snapshots", "insert_bulk", time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("save run %s snapshots: %w", run.RunID, err)
		}
	}

	s.logger.WithFields(logrus.Fields{"run_id": run.RunID, "name": name, "market": market}).Info("Run saved")
	return run, nil
}

// Runs lists journaled runs newest first.
func (s *Service) Runs(ctx context.Context, market string, limit int) ([]*domain.Run, error) {
	if s.runs == nil {
		return nil, ErrPersistenceDisabled
	}
	if market != "" {
		name, err := s.registry.Resolve(market)
		if err != nil {
			return nil, err
		}
		market = name
	}
	return s.runs.List(ctx, market, limit)
}

// Run returns one journaled run.
func (s *Service) Run(ctx context.Context, runID string) (*domain.Run, error) {
	if s.runs == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.runs.GetByID(ctx, runID)
}

// RunTimeseries returns the stored day sequence of a run.
func (s *Service) RunTimeseries(ctx context.Context, runID string) ([]domain.DailySnapshot, error) {
	if s.runs == nil || s.snapshots == nil {
		return nil, ErrPersistenceDisabled
	}
	if _, err := s.runs.GetByID(ctx, runID); err != nil {
		return nil, err
	}
	return s.snapshots.GetByRunID(ctx, runID)
}

func (s *Service) loadTrades(ctx context.Context, market string) ([]*domain.Trade, string, error) {
	name, err := s.registry.Resolve(market)
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	trades, err := s.trades.GetByMarket(ctx, name)
	observability.RecordDBQuery("trades", "get_by_market", time.Since(start), err)
	if err != nil {
		return nil, "", fmt.Errorf("load %s trades: %w", name, err)
	}
	return trades, name, nil
}

func (s *Service) loadBars(ctx context.Context, market string) ([]*domain.MarketBar, string, error) {
	name, err := s.registry.Resolve(market)
	if err != nil {
		return nil, "", err
	}

	start := time.Now()
	bars, err := s.bars.GetByMarket(ctx, name)
	observability.RecordDBQuery("market_data", "get_by_market", time.Since(start), err)
	if err != nil {
		return nil, "", fmt.Errorf("load %s bars: %w", name, err)
	}
	return bars, name, nil
}
