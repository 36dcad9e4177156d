package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"pairs-backtest-lab/internal/config"
	"pairs-backtest-lab/internal/query"
	"pairs-backtest-lab/internal/reporting"
)

// variantEntry is one element of a variants file:
//
//	- name: no-costs
//	  fixed_commission: 0
//	  variable_fee: 0
type variantEntry struct {
	Name      string                  `yaml:"name"`
	Overrides config.TradingOverrides `yaml:",inline"`
}

func loadVariants(path string) ([]query.Variant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variants: %w", err)
	}

	var entries []variantEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse variants: %w", err)
	}
	if len(entries) == 0 {
		return nil, errors.New("variants file lists no variants")
	}

	seen := make(map[string]bool, len(entries))
	out := make([]query.Variant, len(entries))
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("variant %d: name is required", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("variant %q listed twice", e.Name)
		}
		seen[e.Name] = true
		out[i] = query.Variant{Name: e.Name, Overrides: e.Overrides}
	}
	return out, nil
}

func newCompareCmd(root *rootOptions) *cobra.Command {
	var (
		data         dataOptions
		filter       filterOptions
		variantsPath string
		outDir       string
		save         bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run several trading configurations over the same trades and compare them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := filter.filter(cmd)
			if err != nil {
				return err
			}
			variants, err := loadVariants(variantsPath)
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

			results, err := orch.Service.Compare(ctx, root.market, f, variants)
			if err != nil {
				return err
			}

			rows := make([]reporting.ComparisonRow, len(results))
			for i, r := range results {
				rows[i] = reporting.ComparisonRow{Name: r.Name, Config: r.Config, Report: r.Report}
			}
			fmt.Fprint(cmd.OutOrStdout(), reporting.RenderComparisonMarkdown(root.market, time.Now().UTC(), rows))

			if outDir != "" {
				files, err := reporting.NewGenerator().WriteComparison(outDir, root.market, rows)
				if err != nil {
					return err
				}
				logger.WithFields(logrus.Fields{"dir": outDir, "files": len(files)}).Info("Comparison written")
			}

			if save {
				for i := range results {
					run, err := orch.Service.SaveRun(ctx, results[i].Name, root.market, f, &results[i].Outcome)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "saved run %s (%s)\n", run.RunID, run.Name)
				}
			}
			return nil
		},
	}

	data.bind(cmd)
	filter.bind(cmd)
	cmd.Flags().StringVar(&variantsPath, "variants", "", "YAML file listing named trading overrides")
	cmd.Flags().StringVar(&outDir, "out", "", "Write the comparison table into this directory")
	cmd.Flags().BoolVar(&save, "save", false, "Save every variant to the run journal")
	_ = cmd.MarkFlagRequired("variants")
	return cmd
}
