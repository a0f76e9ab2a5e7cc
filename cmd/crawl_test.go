package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsight/extract-cli/internal/classify"
	"github.com/pawsight/extract-cli/internal/config"
	"github.com/pawsight/extract-cli/internal/merge"
	"github.com/pawsight/extract-cli/internal/model"
	"github.com/pawsight/extract-cli/internal/normalize"
	"github.com/pawsight/extract-cli/internal/pipeline"
	"github.com/pawsight/extract-cli/internal/retention"
	"github.com/pawsight/extract-cli/pkg/firecrawl"
)

// fakeFirecrawl scripts vendor behavior for command-level tests.
type fakeFirecrawl struct {
	failScrapeFor string
	extractData   json.RawMessage
	extractReqs   []firecrawl.ExtractRequest
	pages         []firecrawl.PageData
}

func (f *fakeFirecrawl) Scrape(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	if f.failScrapeFor != "" && req.URL == f.failScrapeFor {
		return nil, &firecrawl.APIError{StatusCode: http.StatusForbidden, Body: "blocked"}
	}
	return &firecrawl.ScrapeResponse{
		Success: true,
		Data: firecrawl.PageData{
			Markdown: "# Prices\n\nBoarding £25 per night.",
			Metadata: firecrawl.Metadata{SourceURL: req.URL, StatusCode: 200, CreditsUsed: 1},
		},
	}, nil
}

func (f *fakeFirecrawl) Extract(ctx context.Context, req firecrawl.ExtractRequest) (*firecrawl.ExtractResponse, error) {
	f.extractReqs = append(f.extractReqs, req)
	return &firecrawl.ExtractResponse{Success: true, ID: fmt.Sprintf("job-%d", len(f.extractReqs))}, nil
}

func (f *fakeFirecrawl) GetExtractStatus(ctx context.Context, id string) (*firecrawl.ExtractStatusResponse, error) {
	return &firecrawl.ExtractStatusResponse{Status: "completed", Data: f.extractData, CreditsUsed: 2}, nil
}

func (f *fakeFirecrawl) Crawl(ctx context.Context, req firecrawl.CrawlRequest) (*firecrawl.CrawlResponse, error) {
	return &firecrawl.CrawlResponse{Success: true, ID: "crawl-job-1"}, nil
}

func (f *fakeFirecrawl) GetCrawlStatus(ctx context.Context, id string) (*firecrawl.CrawlStatusResponse, error) {
	return &firecrawl.CrawlStatusResponse{
		Status:      "completed",
		Total:       len(f.pages),
		CreditsUsed: len(f.pages),
		Data:        f.pages,
	}, nil
}

func fastOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.PollOpts = []firecrawl.PollOption{
		firecrawl.WithPollInterval(time.Millisecond),
		firecrawl.WithPollCap(time.Millisecond),
	}
	return opts
}

func sizedExtraction(t *testing.T) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(model.ExtractionResult{
		BusinessName: "Example Kennels",
		Services: []model.ServicePrice{
			{ServiceName: "Boarding", PriceText: "25", Variations: []string{"up to 10kg", "over 40kg, up to 55kg"}},
		},
	})
	require.NoError(t, err)
	return data
}

func TestCrawlOne_AppliesSizeBands(t *testing.T) {
	cfg = &config.Config{}
	cfg.Crawl.MaxPages = 5
	cfg.Crawl.MaxDepth = 2
	cfg.Output.StorageDir = t.TempDir()

	fc := &fakeFirecrawl{
		extractData: sizedExtraction(t),
		pages: []firecrawl.PageData{
			{
				Markdown: strings.Repeat("Boarding prices for small and large dogs from £25 per night all year round. ", 10),
				Metadata: firecrawl.Metadata{
					Title:      "Prices",
					SourceURL:  "https://example-kennels.co.uk/prices",
					StatusCode: 200,
				},
			},
		},
	}
	orch := pipeline.NewOrchestrator(fc, fastOptions())
	classifier := classify.NewClassifier(nil, "", 0)
	manager, err := retention.NewManager(cfg.Output.StorageDir, retention.DefaultPolicy())
	require.NoError(t, err)

	record := model.BusinessRecord{
		URL:          "https://example-kennels.co.uk",
		BusinessType: model.BusinessTypeDogKennel,
	}

	bundle := crawlOne(context.Background(), record, orch, classifier, manager, normalize.NewMapper(nil), merge.DefaultOptions())

	require.True(t, bundle.Succeeded())
	require.Len(t, bundle.Extraction.Services, 1)
	assert.Equal(t, []string{"S", "XL"}, bundle.Extraction.Services[0].SizeBands)

	// The crawl was stored and registered.
	assert.NotNil(t, manager.LatestCrawl(record.URL))
}

func TestCrawlOne_CrawlFailureContained(t *testing.T) {
	cfg = &config.Config{}
	cfg.Crawl.MaxPages = 5
	cfg.Crawl.MaxDepth = 2
	cfg.Output.StorageDir = t.TempDir()

	fc := &failingCrawler{}
	orch := pipeline.NewOrchestrator(fc, fastOptions())
	manager, err := retention.NewManager(cfg.Output.StorageDir, retention.DefaultPolicy())
	require.NoError(t, err)

	record := model.BusinessRecord{
		URL:          "https://down.co.uk",
		BusinessType: model.BusinessTypeCattery,
	}

	bundle := crawlOne(context.Background(), record, orch, classify.NewClassifier(nil, "", 0), manager, normalize.NewMapper(nil), merge.DefaultOptions())

	assert.False(t, bundle.Succeeded())
	assert.Contains(t, bundle.Meta.Error, "crawl failed")
	assert.Equal(t, 0, bundle.Score.Total)
}

// failingCrawler rejects every crawl request.
type failingCrawler struct {
	fakeFirecrawl
}

func (f *failingCrawler) Crawl(ctx context.Context, req firecrawl.CrawlRequest) (*firecrawl.CrawlResponse, error) {
	return nil, &firecrawl.APIError{StatusCode: http.StatusGatewayTimeout, Body: "timeout"}
}
