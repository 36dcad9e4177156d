// Command server serves market views and backtest runs over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"pairs-backtest-lab/internal/api"
	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/logging"
	"pairs-backtest-lab/internal/orchestrator"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Serve the backtest HTTP API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				app.Server.Addr = addr
			}
			return serve(app)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to service config file (default ./backtest.yaml if present)")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address override")
	return cmd
}

func serve(app *config.App) error {
	logger := logging.New(app.Logging.Level, app.Logging.Format)
	if app.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch, err := orchestrator.New(ctx, app, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to start")
		return err
	}
	defer orch.Close()

	srv := api.NewServer(orch.Service, api.Options{
		RateLimit: app.Server.RateLimit,
		RateBurst: app.Server.RateBurst,
		Logger:    logger,
	})

	// Channel to signal completion
	done := make(chan struct{})
	defer close(done)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Info("Shutting down")
			cancel()
		case <-done:
			return
		}

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Warn("Second signal, forcing exit")
			os.Exit(1)
		case <-time.After(35 * time.Second):
			logger.Error("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	if err := srv.ListenAndServe(ctx, app.Server.Addr); err != nil {
		logger.WithError(err).Error("Server error")
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
