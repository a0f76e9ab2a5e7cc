package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pawsight/extract-cli/internal/artifact"
	"github.com/pawsight/extract-cli/internal/config"
	"github.com/pawsight/extract-cli/internal/input"
	"github.com/pawsight/extract-cli/internal/model"
	"github.com/pawsight/extract-cli/internal/normalize"
	"github.com/pawsight/extract-cli/internal/pipeline"
	"github.com/pawsight/extract-cli/internal/retention"
	"github.com/pawsight/extract-cli/internal/scorer"
	"github.com/pawsight/extract-cli/pkg/firecrawl"
)

var (
	extractInput  string
	extractURL    string
	extractType   string
	extractOutput string
	extractDelay  float64
	extractLimit  int
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured pricing data from business websites",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("extract"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		records, err := gatherRecords(extractInput, extractURL, extractType, extractLimit)
		if err != nil {
			return err
		}

		delay := durationSecs(cfg.Extract.DelaySecs)
		if cmd.Flags().Changed("delay") {
			delay = durationSecs(extractDelay)
		}

		outDir := extractOutput
		if outDir == "" {
			outDir = cfg.Output.ExtractionDir
		}
		writer, err := artifact.NewWriter(outDir)
		if err != nil {
			return err
		}

		mapper, err := normalize.LoadAliases(cfg.Extract.AliasesPath)
		if err != nil {
			return err
		}

		fc := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		orch := pipeline.NewOrchestrator(fc, pipelineOptions(cfg))

		zap.L().Info("starting extraction batch",
			zap.Int("records", len(records)),
			zap.Duration("delay", delay),
			zap.String("output_dir", outDir),
		)

		bundles, err := runBatch(ctx, records, orch, writer, mapper, delay)
		if err != nil {
			return err
		}

		summary, err := writer.WriteSummary(bundles)
		if err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.Int("total", summary.Stats.TotalURLs),
			zap.Float64("success_rate", summary.Stats.SuccessRate),
			zap.Float64("avg_quality", summary.Stats.AverageQualityScore),
			zap.Float64("pricing_rate", summary.Stats.PricingRate),
			zap.Int("credits_used", summary.Stats.TotalCreditsUsed),
		)

		if !scorer.MeetsMinimums(summary.Stats) {
			return eris.New("extract: batch below minimum quality targets")
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "CSV file of url,business_type rows")
	extractCmd.Flags().StringVarP(&extractURL, "url", "u", "", "single business URL to process")
	extractCmd.Flags().StringVarP(&extractType, "type", "t", "", "business type (filters CSV input, required with --url)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output directory (default from config)")
	extractCmd.Flags().Float64Var(&extractDelay, "delay", 0, "seconds to wait between records (default from config)")
	extractCmd.Flags().IntVar(&extractLimit, "limit", 0, "max records to process, 0 for all")
	rootCmd.AddCommand(extractCmd)
}

// runBatch processes records sequentially with a politeness delay,
// persisting every bundle. A failed record produces a failure bundle
// and the batch continues; only write errors abort the run.
func runBatch(
	ctx context.Context,
	records []model.BusinessRecord,
	orch *pipeline.Orchestrator,
	writer *artifact.Writer,
	mapper *normalize.Mapper,
	delay time.Duration,
) ([]model.ResultBundle, error) {
	bundles := make([]model.ResultBundle, 0, len(records))
	for i, record := range records {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return bundles, ctx.Err()
			case <-time.After(delay):
			}
		}

		bundle := orch.Run(ctx, record)
		applySizeBands(mapper, &bundle)
		if _, err := writer.WriteBundle(bundle); err != nil {
			return bundles, err
		}
		bundles = append(bundles, bundle)
	}
	return bundles, nil
}

// gatherRecords resolves the batch input: a single --url record or a
// CSV file, optionally filtered by type and capped by limit.
func gatherRecords(inputPath, singleURL, typeFilter string, limit int) ([]model.BusinessRecord, error) {
	if singleURL != "" {
		businessType, err := model.ParseBusinessType(typeFilter)
		if err != nil {
			return nil, eris.Wrap(err, "a valid --type is required with --url")
		}
		return []model.BusinessRecord{{URL: singleURL, BusinessType: businessType}}, nil
	}

	if inputPath == "" {
		return nil, eris.New("either --input or --url is required")
	}

	records, err := input.ReadFile(inputPath)
	if err != nil {
		return nil, err
	}
	if typeFilter != "" {
		businessType, err := model.ParseBusinessType(typeFilter)
		if err != nil {
			return nil, err
		}
		records = input.FilterByType(records, businessType)
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	if len(records) == 0 {
		return nil, eris.New("no records to process")
	}
	return records, nil
}

// applySizeBands normalizes each service's size variations against the
// alias tables, keyed by the business's normalized URL.
func applySizeBands(mapper *normalize.Mapper, bundle *model.ResultBundle) {
	if bundle.Extraction == nil {
		return
	}
	businessID := retention.NormalizeURL(bundle.Record.URL)
	for i := range bundle.Extraction.Services {
		svc := &bundle.Extraction.Services[i]
		for _, label := range svc.Variations {
			mapping := mapper.Map(businessID, label)
			if mapping.Band == nil {
				continue
			}
			svc.SizeBands = appendUnique(svc.SizeBands, string(*mapping.Band))
		}
	}
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

// durationSecs converts a fractional-seconds setting to a Duration.
func durationSecs(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

func pipelineOptions(c *config.Config) pipeline.Options {
	opts := pipeline.DefaultOptions()
	if c.Firecrawl.WaitForMillis > 0 {
		opts.WaitForMillis = c.Firecrawl.WaitForMillis
	}
	if c.Firecrawl.CaptureTimeoutMS > 0 {
		opts.CaptureTimeoutMS = c.Firecrawl.CaptureTimeoutMS
	}
	if c.Firecrawl.ExtractTimeoutMS > 0 {
		opts.ExtractTimeoutMS = c.Firecrawl.ExtractTimeoutMS
	}
	opts.OnlyMainContent = c.Firecrawl.OnlyMainContent
	return opts
}
