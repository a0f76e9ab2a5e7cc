package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pawsight/extract-cli/internal/merge"
	"github.com/pawsight/extract-cli/internal/model"
	"github.com/pawsight/extract-cli/pkg/firecrawl"
)

// CrawlSite crawls a business's whole site and returns the captured
// pages. A failed crawl is recorded on the SiteCrawl rather than
// aborting the caller's batch.
func (o *Orchestrator) CrawlSite(ctx context.Context, record model.BusinessRecord, limit, maxDepth int) (model.SiteCrawl, []model.CrawledPage) {
	crawl := model.SiteCrawl{
		CrawlID:   uuid.NewString(),
		Record:    record,
		StartedAt: o.now(),
	}

	log := zap.L().With(
		zap.String("crawl_id", crawl.CrawlID),
		zap.String("url", record.URL),
	)

	resp, err := o.fc.Crawl(ctx, firecrawl.CrawlRequest{
		URL:          record.URL,
		Limit:        limit,
		MaxDepth:     maxDepth,
		ExcludePaths: o.opts.ExcludePaths,
		ScrapeOptions: &firecrawl.ScrapeOptions{
			Formats:         []string{"markdown", "html"},
			WaitFor:         o.opts.WaitForMillis,
			OnlyMainContent: o.opts.OnlyMainContent,
		},
	})
	if err != nil {
		crawl.Error = describeFailure("crawl", err)
		crawl.CompletedAt = o.now()
		log.Warn("crawl failed to start", zap.Error(err))
		return crawl, nil
	}

	status, err := firecrawl.PollCrawl(ctx, o.fc, resp.ID, o.opts.PollOpts...)
	crawl.CompletedAt = o.now()
	if err != nil {
		crawl.Error = describeFailure("crawl", err)
		log.Warn("crawl failed", zap.Error(err))
		return crawl, nil
	}

	pages := make([]model.CrawledPage, 0, len(status.Data))
	for _, item := range status.Data {
		pageURL := item.Metadata.SourceURL
		if pageURL == "" {
			pageURL = record.URL
		}
		pages = append(pages, model.CrawledPage{
			URL:        pageURL,
			Title:      item.Metadata.Title,
			Markdown:   item.Markdown,
			HTML:       item.HTML,
			StatusCode: item.Metadata.StatusCode,
			WordCount:  len(strings.Fields(item.Markdown)),
		})
	}

	crawl.PagesFound = len(pages)
	crawl.CreditsUsed = status.CreditsUsed
	if crawl.CreditsUsed == 0 {
		// The crawl endpoint bills roughly one credit per page.
		crawl.CreditsUsed = len(pages)
	}

	log.Info("crawl complete",
		zap.Int("pages", len(pages)),
		zap.Int("credits_used", crawl.CreditsUsed),
		zap.Duration("elapsed", crawl.CompletedAt.Sub(crawl.StartedAt)),
	)

	return crawl, pages
}

// ExtractMerged runs structured extraction against the merged crawl
// document, schema mode first with the same prompt-only fallback as
// the single-page flow.
func (o *Orchestrator) ExtractMerged(ctx context.Context, merged merge.MergedContent) (*model.ExtractionResult, model.ExtractionMethod, float64, int, error) {
	start := o.now()
	prompt := mergedPrompt(merged)

	result, credits, schemaErr := o.runExtract(ctx, merged.BusinessURL, ExtractionSchema(), prompt)
	if schemaErr == nil {
		return result, model.MethodSchema, o.now().Sub(start).Seconds(), credits, nil
	}
	zap.L().Debug("schema extraction failed on merged content, trying fallback",
		zap.String("url", merged.BusinessURL),
		zap.Error(schemaErr),
	)

	result, fallbackCredits, fallbackErr := o.runExtract(ctx, merged.BusinessURL, nil, FallbackPrompt(prompt))
	credits += fallbackCredits
	elapsed := o.now().Sub(start).Seconds()
	if fallbackErr == nil {
		return result, model.MethodFallback, elapsed, credits, nil
	}

	return nil, model.MethodFailed, elapsed, credits, fallbackErr
}

func mergedPrompt(merged merge.MergedContent) string {
	base := ExtractionPrompt(merged.BusinessType)
	return fmt.Sprintf(`%s

The following content has been collected from multiple pages of the business website.
Pages included: %s

Extract all available information from this combined content.
`, base, strings.Join(merged.SourcePages, ", "))
}
