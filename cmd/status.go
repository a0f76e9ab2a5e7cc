package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pawsight/extract-cli/internal/retention"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored-crawl retention status and recrawl queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := retention.NewManager(cfg.Output.StorageDir, retention.Policy{
			MaxVersions:   cfg.Retention.MaxVersions,
			RetainMonths:  cfg.Retention.RetainMonths,
			RecrawlMonths: cfg.Retention.RecrawlMonths,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		stats := manager.RetentionStats()
		fmt.Fprintf(out, "Businesses tracked:  %d\n", stats.TotalBusinesses)
		fmt.Fprintf(out, "Stored crawls:       %d (%d active)\n", stats.TotalCrawls, stats.ActiveCrawls)
		fmt.Fprintf(out, "Expiring within 30d: %d\n", stats.ExpiringSoon)
		if stats.LastCleanup != nil {
			fmt.Fprintf(out, "Last cleanup:        %s\n", stats.LastCleanup.Format("2006-01-02 15:04"))
		}

		due := manager.DueForCrawl()
		fmt.Fprintf(out, "\nDue for crawl: %d\n", len(due))
		for _, b := range due {
			when := "never crawled"
			if b.LastCrawledAt != nil {
				when = "last crawled " + b.LastCrawledAt.Format("2006-01-02")
			}
			fmt.Fprintf(out, "  %s (%s, %s)\n", b.BusinessURL, b.BusinessType, when)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
