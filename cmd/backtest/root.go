package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/logging"
	"pairs-backtest-lab/internal/orchestrator"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	market     string
}

// dataOptions select a CSV dataset instead of the configured stores.
type dataOptions struct {
	tradesPath string
	barsPath   string
	profile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "backtest",
		Short:        "Replay pairs-trading trade tables against a capital and cost model",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to service config file (default ./backtest.yaml if present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format override (text, json)")
	root.PersistentFlags().StringVar(&opts.market, "market", "FTSE100", "Market name")

	root.AddCommand(
		newRunCmd(opts),
		newCompareCmd(opts),
		newConfigCmd(),
		newRunsCmd(opts),
		newExportCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (d *dataOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.tradesPath, "trades", "", "Trade table CSV (uses in-memory storage instead of the configured backend)")
	cmd.Flags().StringVar(&d.barsPath, "bars", "", "Market data CSV loaded alongside --trades")
	cmd.Flags().StringVar(&d.profile, "profile", "", "Trading config file (YAML or JSON) replacing the configured defaults")
}

// loadApp loads the service configuration and applies the command line on top of it.
func (o *rootOptions) loadApp(data *dataOptions) (*config.App, error) {
	app, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		app.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		app.Logging.Format = o.logFormat
	}

	if data == nil {
		return app, nil
	}
	if data.profile != "" {
		trading, err := config.LoadTradingFile(data.profile)
		if err != nil {
			return nil, err
		}
		app.Trading = trading
	}
	if data.tradesPath != "" {
		app.Storage.Backend = config.BackendMemory
		app.Datasets = []config.Dataset{{Market: o.market, Trades: data.tradesPath, Bars: data.barsPath}}
		if !hasMarket(app.Markets, o.market) {
			app.Markets = append(app.Markets, o.market)
		}
	}
	return app, nil
}

// open loads configuration and wires the stores and query service.
func (o *rootOptions) open(ctx context.Context, data *dataOptions) (*orchestrator.Orchestrator, *logrus.Logger, error) {
	app, err := o.loadApp(data)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewWithOutput(os.Stderr, app.Logging.Level, app.Logging.Format)

	orch, err := orchestrator.New(ctx, app, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open stores: %w", err)
	}
	return orch, logger, nil
}

func hasMarket(markets []string, name string) bool {
	for _, m := range markets {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
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
