package model

import "time"

// PageType represents a classified page category from a site crawl.
type PageType string

const (
	PageTypePricing  PageType = "pricing"
	PageTypeContact  PageType = "contact"
	PageTypeAbout    PageType = "about"
	PageTypeServices PageType = "services"
	PageTypeTerms    PageType = "terms"
	PageTypeFAQ      PageType = "faq"
	PageTypeBooking  PageType = "booking"
	PageTypeGallery  PageType = "gallery"
	PageTypeBlog     PageType = "blog"
	PageTypeHomepage PageType = "homepage"
	PageTypeOther    PageType = "other"
)

// AllPageTypes returns all defined page types.
func AllPageTypes() []PageType {
	return []PageType{
		PageTypePricing,
		PageTypeContact,
		PageTypeAbout,
		PageTypeServices,
		PageTypeTerms,
		PageTypeFAQ,
		PageTypeBooking,
		PageTypeGallery,
		PageTypeBlog,
		PageTypeHomepage,
		PageTypeOther,
	}
}

// CrawledPage is a single page captured during a full-site crawl.
type CrawledPage struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Markdown   string `json:"markdown,omitempty"`
	HTML       string `json:"html,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`

	// Classification results, populated after the classify phase.
	PageType          PageType `json:"page_type,omitempty"`
	TypeConfidence    float64  `json:"type_confidence"`
	RelevanceScore    float64  `json:"relevance_score"`
	HasPricingSignals bool     `json:"has_pricing_signals"`
	HasContactSignals bool     `json:"has_contact_signals"`
	WordCount         int      `json:"word_count,omitempty"`
}

// SiteCrawl describes one full-site crawl run for a business.
type SiteCrawl struct {
	CrawlID     string         `json:"crawl_id"`
	Record      BusinessRecord `json:"record"`
	PagesFound  int            `json:"pages_found"`
	CreditsUsed int            `json:"credits_used"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	Error       string         `json:"error,omitempty"`
}
