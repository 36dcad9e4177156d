package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunsCmd(root *rootOptions) *cobra.Command {
	var (
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List saved runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			orch, _, err := root.open(ctx, nil)
			if err != nil {
				return err
			}
			defer orch.Close()

			market := root.market
			if all {
				market = ""
			}
			runs, err := orch.Service.Runs(ctx, market, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-26s  %-20s  %-10s  %6s  %7s  %8s  %s\n", "RUN ID", "CREATED", "MARKET", "TRADES", "SKIPPED", "REJECTED", "NAME")
			for _, r := range runs {
				fmt.Fprintf(w, "%-26s  %-20s  %-10s  %6d  %7d  %8d  %s\n",
					r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Market, r.Trades, r.Skipped, r.Rejected, r.Name)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs")
	cmd.Flags().BoolVar(&all, "all", false, "List runs of every market")
	return cmd
}
