package model

import "time"

// ExtractionMethod records which extraction strategy produced the final result.
type ExtractionMethod string

const (
	MethodSchema   ExtractionMethod = "schema"
	MethodFallback ExtractionMethod = "fallback"
	MethodFailed   ExtractionMethod = "failed"
)

// PageMetadata holds page-level metadata from the capture pass.
type PageMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
}

// CaptureResult is the raw content snapshot from the capture pass.
// The rest of the pipeline treats the content as opaque text.
type CaptureResult struct {
	Markdown string       `json:"markdown,omitempty"`
	HTML     string       `json:"html,omitempty"`
	Metadata PageMetadata `json:"metadata"`
}

// QualityScore is the derived completeness score for one extraction,
// with the component contributions that produced it. Recomputable at
// any time from the ExtractionResult; never mutated in place.
type QualityScore struct {
	Total int `json:"total"` // 0-100

	ExtractionPresent int `json:"extraction_present"` // 20 or 0
	BusinessName      int `json:"business_name"`      // 10 or 0
	ContactInfo       int `json:"contact_info"`       // 10 or 0
	FirstPrice        int `json:"first_price"`        // 30 or 0
	AdditionalPrices  int `json:"additional_prices"`  // 0-20
	VaccinationInfo   int `json:"vaccination_info"`   // 5 or 0
	PolicyInfo        int `json:"policy_info"`        // 5 or 0

	PriceCount int `json:"price_count"`
}

// RunMeta holds timing, cost, and error metadata for one record.
type RunMeta struct {
	RunID          string           `json:"run_id"`
	Method         ExtractionMethod `json:"method"`
	CaptureSeconds float64          `json:"capture_seconds"`
	ExtractSeconds float64          `json:"extract_seconds"`
	CreditsUsed    int              `json:"credits_used"`
	Error          string           `json:"error,omitempty"`
	CapturedAt     time.Time        `json:"captured_at"`
}

// ResultBundle is the persisted unit for one business record. Created
// once per record, written once, never updated; re-running produces a
// new bundle with a new timestamp.
type ResultBundle struct {
	Record     BusinessRecord    `json:"record"`
	Capture    *CaptureResult    `json:"capture,omitempty"`
	Extraction *ExtractionResult `json:"extraction,omitempty"`
	Score      QualityScore      `json:"score"`
	Meta       RunMeta           `json:"meta"`
}

// Succeeded reports whether the bundle carries structured extraction data.
func (b *ResultBundle) Succeeded() bool {
	return b.Extraction != nil
}
