// Package orchestrator wires configured stores, dataset loading and the query service
// for the server, CLI and ingest commands.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/loader"
	"pairs-backtest-lab/internal/query"
	"pairs-backtest-lab/internal/storage"
	chstore "pairs-backtest-lab/internal/storage/clickhouse"
	"pairs-backtest-lab/internal/storage/memory"
	"pairs-backtest-lab/internal/storage/migrations"
	pgstore "pairs-backtest-lab/internal/storage/postgres"
	"pairs-backtest-lab/internal/storage/sqlite"
)

// Stores holds the storage implementations selected by configuration.
type Stores struct {
	Trades    storage.TradeStore
	Bars      storage.MarketDataStore
	Runs      storage.RunStore
	Snapshots storage.SnapshotStore

	closers []func() error
}

// Close releases every underlying connection.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenStores creates the stores for cfg. The postgres backend applies pending schema
// migrations first. A non-empty SQLitePath moves the run journal into a local SQLite
// file on either backend.
func OpenStores(ctx context.Context, cfg config.StorageConfig, logger logrus.FieldLogger) (*Stores, error) {
	s := &Stores{}

	switch cfg.Backend {
	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() error { pool.Close(); return nil })
		applied, err := migrations.ApplyPostgres(ctx, pool)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		logMigrations(logger, "postgres", applied)

		conn, err := chstore.OpenDatabase(ctx, cfg.ClickhouseDSN)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, conn.Close)
		applied, err = migrations.ApplyClickhouse(ctx, conn)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		logMigrations(logger, "clickhouse", applied)

		s.Trades = pgstore.NewTradeStore(pool)
		s.Runs = pgstore.NewRunStore(pool)
		s.Bars = chstore.NewMarketDataStore(conn)
		s.Snapshots = chstore.NewSnapshotStore(conn)

	case config.BackendMemory, "":
		s.Trades = memory.NewTradeStore()
		s.Bars = memory.NewMarketDataStore()
		s.Runs = memory.NewRunStore()
		s.Snapshots = memory.NewSnapshotStore()

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if cfg.SQLitePath != "" {
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open run journal: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		s.Runs = sqlite.NewRunStore(db)
		s.Snapshots = sqlite.NewSnapshotStore(db)
	}

	return s, nil
}

func logMigrations(logger logrus.FieldLogger, db string, applied []string) {
	for _, name := range applied {
		logger.WithFields(logrus.Fields{"db": db, "migration": name}).Info("Migration applied")
	}
}

// LoadDatasets ingests every configured dataset file into the stores.
// Markets that already hold trades are left alone, so restarting against a
// persistent backend does not fail on duplicate keys.
func LoadDatasets(ctx context.Context, stores *Stores, datasets []config.Dataset, logger logrus.FieldLogger) error {
	if len(datasets) == 0 {
		return nil
	}

	loadedTrades, err := stores.Trades.Markets(ctx)
	if err != nil {
		return fmt.Errorf("list trade markets: %w", err)
	}
	loadedBars, err := stores.Bars.Markets(ctx)
	if err != nil {
		return fmt.Errorf("list market data markets: %w", err)
	}

	ing := loader.NewIngester(stores.Trades, stores.Bars, logger)
	for _, d := range datasets {
		if d.Trades != "" {
			if contains(loadedTrades, d.Market) {
				logger.WithField("market", d.Market).Info("Trades already loaded, skipping")
			} else if _, err := ing.IngestTrades(ctx, d.Trades, d.Market); err != nil {
				return err
			}
		}
		if d.Bars != "" {
			if contains(loadedBars, d.Market) {
				logger.WithField("market", d.Market).Info("Market data already loaded, skipping")
			} else if _, err := ing.IngestBars(ctx, d.Bars, d.Market); err != nil {
				return err
			}
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Orchestrator owns the stores and the query service built on them.
type Orchestrator struct {
	Stores  *Stores
	Service *query.Service
}

// New opens the stores for app, loads its datasets and builds the query service.
func New(ctx context.Context, app *config.App, logger logrus.FieldLogger) (*Orchestrator, error) {
	stores, err := OpenStores(ctx, app.Storage, logger)
	if err != nil {
		return nil, err
	}

	if err := LoadDatasets(ctx, stores, app.Datasets, logger); err != nil {
		stores.Close()
		return nil, err
	}

	svc, err := query.NewService(query.Options{
		Trades:      stores.Trades,
		Bars:        stores.Bars,
		Runs:        stores.Runs,
		Snapshots:   stores.Snapshots,
		Registry:    query.NewRegistry(app.Markets),
		Defaults:    app.Trading,
		Logger:      logger,
		Parallelism: app.Batch.Parallelism,
	})
	if err != nil {
		stores.Close()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"backend":  app.Storage.Backend,
		"markets":  len(app.Markets),
		"datasets": len(app.Datasets),
		"journal":  app.Storage.SQLitePath,
	}).Info("Stores ready")

	return &Orchestrator{Stores: stores, Service: svc}, nil
}

// Close releases the stores.
func (o *Orchestrator) Close() error {
	return o.Stores.Close()
}
