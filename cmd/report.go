package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pawsight/extract-cli/internal/artifact"
	"github.com/pawsight/extract-cli/internal/scorer"
)

var reportDir string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize extraction quality from stored metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("report"); err != nil {
			return err
		}

		dir := reportDir
		if dir == "" {
			dir = cfg.Output.ExtractionDir
		}

		bundles, err := artifact.ReadMetrics(dir)
		if err != nil {
			return err
		}
		if len(bundles) == 0 {
			return eris.Errorf("report: no metrics files found in %s", dir)
		}

		stats := scorer.Aggregate(bundles)
		byType := scorer.AggregateByType(bundles)
		fmt.Fprint(cmd.OutOrStdout(), scorer.FormatReport(stats, byType))

		if !scorer.MeetsMinimums(stats) {
			return eris.New("report: batch below minimum quality targets")
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportDir, "dir", "d", "", "metrics directory (default from config)")
	rootCmd.AddCommand(reportCmd)
}
