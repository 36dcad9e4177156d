package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"pairs-backtest-lab/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and check trading config profiles",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigValidateCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default trading config to a YAML or JSON file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "trading.yaml"
			if len(args) == 1 {
				path = args[0]
			}

			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
			}

			if err := config.SaveTradingFile(path, config.DefaultTrading()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Check a trading config file and print the effective values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := config.LoadTradingFile(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: ok\n", args[0])
			fmt.Fprintf(w, "  initial_capital:       %g\n", t.InitialCapital)
			fmt.Fprintf(w, "  position_size_percent: %g\n", t.PositionSizePercent)
			fmt.Fprintf(w, "  fixed_commission:      %g\n", t.FixedCommission)
			fmt.Fprintf(w, "  variable_fee:          %g\n", t.VariableFee)
			fmt.Fprintf(w, "  bid_ask_spread:        %g\n", t.BidAskSpread)
			fmt.Fprintf(w, "  risk_free_rate:        %g\n", t.RiskFreeRate)
			fmt.Fprintf(w, "  nominal position size: %g\n", t.NominalPositionSize())
			return nil
		},
	}
}
