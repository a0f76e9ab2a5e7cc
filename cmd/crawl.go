package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pawsight/extract-cli/internal/artifact"
	"github.com/pawsight/extract-cli/internal/classify"
	"github.com/pawsight/extract-cli/internal/config"
	"github.com/pawsight/extract-cli/internal/merge"
	"github.com/pawsight/extract-cli/internal/model"
	"github.com/pawsight/extract-cli/internal/normalize"
	"github.com/pawsight/extract-cli/internal/pipeline"
	"github.com/pawsight/extract-cli/internal/retention"
	"github.com/pawsight/extract-cli/internal/scorer"
	"github.com/pawsight/extract-cli/pkg/anthropic"
	"github.com/pawsight/extract-cli/pkg/firecrawl"
)

var (
	crawlInput  string
	crawlURL    string
	crawlType   string
	crawlOutput string
	crawlLimit  int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl whole business sites and extract from merged content",
	Long:  "Crawls every page of a business website, classifies pages by type, merges the most relevant content into one document, and runs structured extraction over it. Crawled pages are stored with versioned retention.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("crawl"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		records, err := gatherRecords(crawlInput, crawlURL, crawlType, crawlLimit)
		if err != nil {
			return err
		}

		outDir := crawlOutput
		if outDir == "" {
			outDir = cfg.Output.CrawlDir
		}
		writer, err := artifact.NewWriter(outDir)
		if err != nil {
			return err
		}

		manager, err := retention.NewManager(cfg.Output.StorageDir, retention.Policy{
			MaxVersions:   cfg.Retention.MaxVersions,
			RetainMonths:  cfg.Retention.RetainMonths,
			RecrawlMonths: cfg.Retention.RecrawlMonths,
		})
		if err != nil {
			return err
		}

		mapper, err := normalize.LoadAliases(cfg.Extract.AliasesPath)
		if err != nil {
			return err
		}

		fc := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		orch := pipeline.NewOrchestrator(fc, crawlPipelineOptions(cfg))
		classifier := newClassifier(cfg)

		mergeOpts := merge.Options{
			TokenBudget:  cfg.Merge.TokenBudget,
			MaxPages:     cfg.Merge.MaxPages,
			MinRelevance: cfg.Merge.MinRelevance,
		}

		bundles := make([]model.ResultBundle, 0, len(records))
		for _, record := range records {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			bundle := crawlOne(ctx, record, orch, classifier, manager, mapper, mergeOpts)
			if _, err := writer.WriteBundle(bundle); err != nil {
				return err
			}
			bundles = append(bundles, bundle)
		}

		if _, err := writer.WriteSummary(bundles); err != nil {
			return err
		}

		cleanup, err := manager.CleanupExpired()
		if err != nil {
			return err
		}
		zap.L().Info("retention sweep",
			zap.Int("crawls_deleted", cleanup.CrawlsDeleted),
			zap.Int64("bytes_freed", cleanup.BytesFreed),
		)

		return nil
	},
}

func init() {
	crawlCmd.Flags().StringVarP(&crawlInput, "input", "i", "", "CSV file of url,business_type rows")
	crawlCmd.Flags().StringVarP(&crawlURL, "url", "u", "", "single business URL to crawl")
	crawlCmd.Flags().StringVarP(&crawlType, "type", "t", "", "business type (filters CSV input, required with --url)")
	crawlCmd.Flags().StringVarP(&crawlOutput, "output", "o", "", "output directory (default from config)")
	crawlCmd.Flags().IntVar(&crawlLimit, "limit", 0, "max businesses to crawl, 0 for all")
	rootCmd.AddCommand(crawlCmd)
}

// crawlOne runs the full crawl flow for a single business. Failures
// are contained in the returned bundle so the batch keeps going.
func crawlOne(
	ctx context.Context,
	record model.BusinessRecord,
	orch *pipeline.Orchestrator,
	classifier *classify.Classifier,
	manager *retention.Manager,
	mapper *normalize.Mapper,
	mergeOpts merge.Options,
) model.ResultBundle {
	log := zap.L().With(
		zap.String("url", record.URL),
		zap.String("business_type", string(record.BusinessType)),
	)

	crawl, pages := orch.CrawlSite(ctx, record, cfg.Crawl.MaxPages, cfg.Crawl.MaxDepth)
	bundle := model.ResultBundle{
		Record: record,
		Meta: model.RunMeta{
			RunID:          crawl.CrawlID,
			Method:         model.MethodFailed,
			CapturedAt:     crawl.StartedAt,
			CaptureSeconds: crawl.CompletedAt.Sub(crawl.StartedAt).Seconds(),
			CreditsUsed:    crawl.CreditsUsed,
		},
	}
	if crawl.Error != "" {
		bundle.Meta.Error = crawl.Error
		bundle.Score = scorer.Score(nil)
		return bundle
	}

	pages = classifier.ClassifyPages(ctx, pages)
	summary := classify.Summarize(pages)
	log.Info("pages classified",
		zap.Int("total", summary.TotalPages),
		zap.Int("high_relevance", summary.HighRelevancePages),
		zap.Int("with_pricing", summary.PagesWithPricing),
	)

	storedAt, err := artifact.WriteCrawlPages(cfg.Output.StorageDir, crawl.CrawlID, pages)
	if err != nil {
		log.Warn("failed to store crawl pages", zap.Error(err))
	} else {
		if _, err := manager.RegisterCrawl(crawl.CrawlID, record.URL, string(record.BusinessType), storedAt, crawl.PagesFound, crawl.CreditsUsed); err != nil {
			log.Warn("failed to register crawl", zap.Error(err))
		}
	}

	merged := merge.Merge(pages, crawl.CrawlID, record, mergeOpts)
	log.Info("content merged", zap.String("summary", merge.Summary(merged)))

	result, method, extractSecs, credits, err := orch.ExtractMerged(ctx, merged)
	bundle.Meta.Method = method
	bundle.Meta.ExtractSeconds = extractSecs
	bundle.Meta.CreditsUsed += credits
	if err != nil {
		bundle.Meta.Error = "extract failed: " + err.Error()
		bundle.Score = scorer.Score(nil)
		return bundle
	}

	bundle.Capture = &model.CaptureResult{
		Markdown: merged.Markdown,
		Metadata: model.PageMetadata{SourceURL: record.URL},
	}
	bundle.Extraction = result
	applySizeBands(mapper, &bundle)
	bundle.Score = scorer.Score(result)

	log.Info("crawl extraction complete",
		zap.String("method", string(method)),
		zap.Int("quality_score", bundle.Score.Total),
		zap.Int("pages_merged", merged.PagesMerged),
		zap.Int("credits_used", bundle.Meta.CreditsUsed),
	)

	return bundle
}

// newClassifier builds the page classifier, with LLM refinement only
// when an Anthropic key is configured.
func newClassifier(c *config.Config) *classify.Classifier {
	if c.Anthropic.Key == "" {
		return classify.NewClassifier(nil, "", 0)
	}
	llm := anthropic.NewClient(c.Anthropic.Key)
	return classify.NewClassifier(llm, c.Anthropic.ClassifierModel, c.Anthropic.MaxTokens)
}

func crawlPipelineOptions(c *config.Config) pipeline.Options {
	opts := pipelineOptions(c)
	opts.ExcludePaths = c.Crawl.ExcludePaths
	return opts
}
