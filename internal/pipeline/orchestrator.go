// Package pipeline runs the per-record extraction flow: capture the
// page, extract structured data (schema mode with a prompt-only
// fallback), score the result, and bundle everything for persistence.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pawsight/extract-cli/internal/model"
	"github.com/pawsight/extract-cli/internal/scorer"
	"github.com/pawsight/extract-cli/pkg/firecrawl"
)

// Options hold the per-run vendor settings.
type Options struct {
	WaitForMillis    int
	CaptureTimeoutMS int
	ExtractTimeoutMS int
	OnlyMainContent  bool
	ExcludePaths     []string
	PollOpts         []firecrawl.PollOption
}

// DefaultOptions returns the stock capture and extract settings.
func DefaultOptions() Options {
	return Options{
		WaitForMillis:    3000,
		CaptureTimeoutMS: 60000,
		ExtractTimeoutMS: 120000,
	}
}

// Orchestrator runs the extraction pipeline for one record at a time.
type Orchestrator struct {
	fc   firecrawl.Client
	opts Options
	now  func() time.Time
}

// NewOrchestrator builds an Orchestrator over a Firecrawl client.
func NewOrchestrator(fc firecrawl.Client, opts Options) *Orchestrator {
	return &Orchestrator{
		fc:   fc,
		opts: opts,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Run processes one business record end to end. It never returns an
// error: every failure is contained in the bundle so one bad site
// cannot take down a batch.
func (o *Orchestrator) Run(ctx context.Context, record model.BusinessRecord) model.ResultBundle {
	bundle := model.ResultBundle{
		Record: record,
		Meta: model.RunMeta{
			RunID:      uuid.NewString(),
			Method:     model.MethodFailed,
			CapturedAt: o.now(),
		},
	}

	log := zap.L().With(
		zap.String("run_id", bundle.Meta.RunID),
		zap.String("url", record.URL),
		zap.String("business_type", string(record.BusinessType)),
	)

	capture, captureCredits, captureSecs, err := o.capture(ctx, record.URL)
	bundle.Meta.CaptureSeconds = captureSecs
	bundle.Meta.CreditsUsed = captureCredits
	if err != nil {
		bundle.Meta.Error = describeFailure("capture", err)
		bundle.Score = scorer.Score(nil)
		log.Warn("capture failed", zap.Error(err))
		return bundle
	}
	bundle.Capture = capture

	result, method, extractSecs, extractCredits, err := o.extract(ctx, record)
	bundle.Meta.ExtractSeconds = extractSecs
	bundle.Meta.CreditsUsed += extractCredits
	bundle.Meta.Method = method
	if err != nil {
		bundle.Meta.Error = describeFailure("extract", err)
		bundle.Score = scorer.Score(nil)
		log.Warn("extraction failed", zap.Error(err))
		return bundle
	}

	bundle.Extraction = result
	bundle.Score = scorer.Score(result)

	log.Info("record processed",
		zap.String("method", string(method)),
		zap.Int("quality_score", bundle.Score.Total),
		zap.Int("prices_found", bundle.Score.PriceCount),
		zap.Float64("capture_seconds", captureSecs),
		zap.Float64("extract_seconds", extractSecs),
	)

	return bundle
}

func (o *Orchestrator) capture(ctx context.Context, url string) (*model.CaptureResult, int, float64, error) {
	start := o.now()
	resp, err := o.fc.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             url,
		Formats:         []string{"markdown", "html"},
		WaitFor:         o.opts.WaitForMillis,
		Timeout:         o.opts.CaptureTimeoutMS,
		OnlyMainContent: o.opts.OnlyMainContent,
	})
	elapsed := o.now().Sub(start).Seconds()
	if err != nil {
		return nil, 0, elapsed, err
	}
	if !resp.Success {
		return nil, 0, elapsed, eris.New("pipeline: capture returned unsuccessful response")
	}

	capture := &model.CaptureResult{
		Markdown: resp.Data.Markdown,
		HTML:     resp.Data.HTML,
		Metadata: model.PageMetadata{
			Title:       resp.Data.Metadata.Title,
			Description: resp.Data.Metadata.Description,
			SourceURL:   resp.Data.Metadata.SourceURL,
			StatusCode:  resp.Data.Metadata.StatusCode,
		},
	}

	// Vendor metadata is sometimes empty; recover what we can from
	// the raw HTML.
	if capture.Metadata.Title == "" || capture.Metadata.Description == "" {
		title, description := htmlMetadata(capture.HTML)
		if capture.Metadata.Title == "" {
			capture.Metadata.Title = title
		}
		if capture.Metadata.Description == "" {
			capture.Metadata.Description = description
		}
	}
	if capture.Metadata.SourceURL == "" {
		capture.Metadata.SourceURL = url
	}

	return capture, resp.Data.Metadata.CreditsUsed, elapsed, nil
}

func (o *Orchestrator) extract(ctx context.Context, record model.BusinessRecord) (*model.ExtractionResult, model.ExtractionMethod, float64, int, error) {
	start := o.now()
	prompt := ExtractionPrompt(record.BusinessType)

	result, credits, schemaErr := o.runExtract(ctx, record.URL, ExtractionSchema(), prompt)
	if schemaErr == nil {
		return result, model.MethodSchema, o.now().Sub(start).Seconds(), credits, nil
	}
	zap.L().Debug("schema extraction failed, trying prompt-only fallback",
		zap.String("url", record.URL),
		zap.Error(schemaErr),
	)

	result, fallbackCredits, fallbackErr := o.runExtract(ctx, record.URL, nil, FallbackPrompt(prompt))
	credits += fallbackCredits
	elapsed := o.now().Sub(start).Seconds()
	if fallbackErr == nil {
		return result, model.MethodFallback, elapsed, credits, nil
	}

	return nil, model.MethodFailed, elapsed, credits,
		eris.Wrap(errors.Join(schemaErr, fallbackErr), "pipeline: both extraction modes failed")
}

func (o *Orchestrator) runExtract(ctx context.Context, url string, schema json.RawMessage, prompt string) (*model.ExtractionResult, int, error) {
	resp, err := o.fc.Extract(ctx, firecrawl.ExtractRequest{
		URLs:    []string{url},
		Schema:  schema,
		Prompt:  prompt,
		Timeout: o.opts.ExtractTimeoutMS,
	})
	if err != nil {
		return nil, 0, err
	}
	if !resp.Success || resp.ID == "" {
		return nil, 0, eris.New("pipeline: extract job rejected")
	}

	status, err := firecrawl.PollExtract(ctx, o.fc, resp.ID, o.opts.PollOpts...)
	if err != nil {
		return nil, 0, err
	}

	var result model.ExtractionResult
	if err := json.Unmarshal(status.Data, &result); err != nil {
		return nil, status.CreditsUsed, eris.Wrap(err, "pipeline: decode extraction data")
	}
	return &result, status.CreditsUsed, nil
}

// describeFailure prefixes the error with its phase and, for vendor
// errors, the failure taxonomy bucket.
func describeFailure(phase string, err error) string {
	var apiErr *firecrawl.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s failed (%s): %v", phase, apiErr.Kind(), err)
	}
	return fmt.Sprintf("%s failed: %v", phase, err)
}
