package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/domain"
	"pairs-backtest-lab/internal/reporting"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write the timeseries and summary of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			orch, _, err := root.open(ctx, nil)
			if err != nil {
				return err
			}
			defer orch.Close()

			run, err := orch.Service.Run(ctx, args[0])
			if err != nil {
				return err
			}
			days, err := orch.Service.RunTimeseries(ctx, run.RunID)
			if err != nil {
				return err
			}

			var cfg config.Trading
			if err := json.Unmarshal(run.Config, &cfg); err != nil {
				return fmt.Errorf("decode run config: %w", err)
			}
			var perf domain.PerformanceReport
			if err := json.Unmarshal(run.Report, &perf); err != nil {
				return fmt.Errorf("decode run report: %w", err)
			}

			gen := reporting.NewGenerator()
			report := gen.Build(run.Name, run.Market, run.Filter, cfg, &domain.SimulationResult{Timeseries: days}, &perf)
			files, err := gen.WriteFiles(outDir, report)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "export", "Output directory")
	return cmd
}
