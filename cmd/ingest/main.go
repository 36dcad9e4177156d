// Command ingest loads trade tables and market data CSV files into the configured stores.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/loader"
	"pairs-backtest-lab/internal/logging"
	"pairs-backtest-lab/internal/orchestrator"
	"pairs-backtest-lab/internal/query"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	market     string
	batchSize  int
}

// session is one opened set of stores with its ingester.
type session struct {
	stores   *orchestrator.Stores
	ingester *loader.Ingester
	logger   *logrus.Logger
	app      *config.App
}

func (o *options) open(ctx context.Context) (*session, error) {
	app, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithOutput(os.Stderr, app.Logging.Level, app.Logging.Format)
	if app.Storage.Backend == config.BackendMemory {
		logger.Warn("Memory backend: rows are validated but not kept after exit")
	}

	stores, err := orchestrator.OpenStores(ctx, app.Storage, logger)
	if err != nil {
		return nil, err
	}

	ing := loader.NewIngester(stores.Trades, stores.Bars, logger)
	if o.batchSize > 0 {
		ing = ing.WithBatchSize(o.batchSize)
	}
	return &session{stores: stores, ingester: ing, logger: logger, app: app}, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "ingest",
		Short:        "Load CSV files into the configured stores",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to service config file (default ./backtest.yaml if present)")
	root.PersistentFlags().StringVar(&opts.market, "market", "FTSE100", "Market the rows belong to")
	root.PersistentFlags().IntVar(&opts.batchSize, "batch-size", loader.DefaultBatchSize, "Rows per bulk insert")

	root.AddCommand(
		newFileCmd(opts, loader.KindTrades, "Load a trade table CSV"),
		newFileCmd(opts, loader.KindBars, "Load a market data CSV"),
		newDatasetsCmd(opts),
	)
	return root
}

func newFileCmd(opts *options, kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			s, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer s.stores.Close()

			market, err := query.NewRegistry(s.app.Markets).Resolve(opts.market)
			if err != nil {
				return err
			}

			var sum *loader.IngestSummary
			if kind == loader.KindTrades {
				sum, err = s.ingester.IngestTrades(ctx, args[0], market)
			} else {
				sum, err = s.ingester.IngestBars(ctx, args[0], market)
			}
			if err != nil {
				return err
			}
			printSummary(cmd, sum)
			return nil
		},
	}
}

func newDatasetsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "Load every dataset listed in the service config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			s, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer s.stores.Close()

			if len(s.app.Datasets) == 0 {
				return fmt.Errorf("no datasets configured")
			}
			return orchestrator.LoadDatasets(ctx, s.stores, s.app.Datasets, s.logger)
		},
	}
}

func printSummary(cmd *cobra.Command, sum *loader.IngestSummary) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d rows inserted, %d rejected (%s)\n",
		sum.Market, sum.Kind, sum.Inserted, len(sum.Errors), sum.Elapsed.Round(time.Millisecond))
	for _, e := range sum.Errors {
		fmt.Fprintf(cmd.OutOrStdout(), "  %v\n", e)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
