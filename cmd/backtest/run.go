package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pairs-backtest-lab/internal/reporting"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		data   dataOptions
		filter filterOptions
		over   overrideOptions
		outDir string
		name   string
		save   bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate one trade table and print the performance report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := filter.filter(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			orch, logger, err := root.open(ctx, &data)
			if err != nil {
				return err
			}
			defer orch.Close()

			out, err := orch.Service.Performance(ctx, root.market, f, over.overrides(cmd))
			if err != nil {
				return err
			}

			gen := reporting.NewGenerator()
			report := gen.Build(name, root.market, f.String(), out.Config, out.Result, out.Report)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(out.Report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), reporting.RenderMarkdown(report))
			}

			if outDir != "" {
				files, err := gen.WriteFiles(outDir, report)
				if err != nil {
					return err
				}
				logger.WithFields(logrus.Fields{"dir": outDir, "files": len(files)}).Info("Report written")
			}

			if save {
				run, err := orch.Service.SaveRun(ctx, name, root.market, f, out)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "saved run %s\n", run.RunID)
			}
			return nil
		},
	}

	data.bind(cmd)
	filter.bind(cmd)
	over.bind(cmd)
	cmd.Flags().StringVar(&outDir, "out", "", "Write CSV tables and a Markdown summary into this directory")
	cmd.Flags().StringVar(&name, "name", "", "Run label used in reports and the run journal")
	cmd.Flags().BoolVar(&save, "save", false, "Save the run and its timeseries to the run journal")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON instead of Markdown")
	return cmd
}
