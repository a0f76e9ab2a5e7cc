// Package classify assigns page types and extraction relevance to
// crawled pages. A rule-based pass runs first; pages the rules are
// unsure about can be refined with a cheap LLM call.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pawsight/extract-cli/internal/model"
)

var urlPatterns = []struct {
	pageType model.PageType
	patterns []string
}{
	{model.PageTypePricing, []string{
		"/pric", "/rate", "/fee", "/cost", "/tariff",
		"/charge", "/boarding-price", "/grooming-price",
	}},
	{model.PageTypeContact, []string{
		"/contact", "/location", "/find-us", "/directions",
		"/where", "/visit", "/get-in-touch",
	}},
	{model.PageTypeAbout, []string{
		"/about", "/our-story", "/who-we-are", "/team",
		"/history", "/meet-the-team",
	}},
	{model.PageTypeServices, []string{
		"/service", "/what-we-do", "/our-service", "/treatment",
		"/grooming", "/boarding", "/daycare",
	}},
	{model.PageTypeTerms, []string{
		"/term", "/condition", "/polic", "/t-and-c", "/t&c",
		"/cancellation", "/booking-term",
	}},
	{model.PageTypeFAQ, []string{
		"/faq", "/question", "/help", "/info",
		"/frequently-asked",
	}},
	{model.PageTypeBooking, []string{
		"/book", "/reserv", "/appointment", "/availability",
		"/schedule",
	}},
	{model.PageTypeGallery, []string{
		"/gallery", "/photo", "/image", "/picture",
		"/virtual-tour",
	}},
	{model.PageTypeBlog, []string{
		"/blog", "/news", "/article", "/post",
		"/update", "/latest",
	}},
}

var pricingSignals = []*regexp.Regexp{
	regexp.MustCompile(`£\d+`),
	regexp.MustCompile(`£ \d+`),
	regexp.MustCompile(`\d+\.\d{2}`),
	regexp.MustCompile(`(?i)per night`),
	regexp.MustCompile(`(?i)per day`),
	regexp.MustCompile(`(?i)per hour`),
	regexp.MustCompile(`(?i)per session`),
	regexp.MustCompile(`(?i)from £`),
	regexp.MustCompile(`(?i)prices from`),
	regexp.MustCompile(`(?i)rates from`),
	regexp.MustCompile(`(?i)price list`),
	regexp.MustCompile(`(?i)our prices`),
	regexp.MustCompile(`(?i)our rates`),
	regexp.MustCompile(`(?i)small dog`),
	regexp.MustCompile(`(?i)medium dog`),
	regexp.MustCompile(`(?i)large dog`),
	regexp.MustCompile(`(?i)full groom`),
	regexp.MustCompile(`(?i)bath and dry`),
	regexp.MustCompile(`(?i)nail trim`),
}

var contactSignals = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{5}\s?\d{6}\b`),                            // UK mobile
	regexp.MustCompile(`\b0\d{2,4}\s?\d{6,7}\b`),                       // UK landline
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`), // email
	regexp.MustCompile(`[A-Z]{1,2}\d{1,2}\s?\d[A-Z]{2}`),               // UK postcode
	regexp.MustCompile(`(?i)opening hours`),
	regexp.MustCompile(`(?i)open mon`),
	regexp.MustCompile(`(?i)open daily`),
}

// Signals summarizes pricing and contact evidence found in page content.
type Signals struct {
	PricingCount      int
	ContactCount      int
	HasPricingSignals bool
	HasContactSignals bool
	WordCount         int
}

// AnalyzeSignals scans markdown content for pricing and contact evidence.
func AnalyzeSignals(markdown string) Signals {
	var s Signals
	for _, re := range pricingSignals {
		s.PricingCount += len(re.FindAllString(markdown, -1))
	}
	for _, re := range contactSignals {
		s.ContactCount += len(re.FindAllString(markdown, -1))
	}
	s.HasPricingSignals = s.PricingCount >= 2
	s.HasContactSignals = s.ContactCount >= 2
	s.WordCount = len(strings.Fields(markdown))
	return s
}

// ClassifyByURL assigns a page type from the URL path alone.
// Returns ("", 0) when no pattern matches.
func ClassifyByURL(rawURL string) (model.PageType, float64) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0
	}
	path := strings.ToLower(u.Path)

	switch path {
	case "", "/", "/index", "/index.html", "/home":
		return model.PageTypeHomepage, 0.9
	}

	for _, entry := range urlPatterns {
		for _, pattern := range entry.patterns {
			if strings.Contains(path, pattern) {
				return entry.pageType, 0.8
			}
		}
	}

	return "", 0
}

// Base relevance by page type. Pricing pages matter most.
var baseRelevance = map[model.PageType]float64{
	model.PageTypePricing:  1.0,
	model.PageTypeServices: 0.9,
	model.PageTypeContact:  0.85,
	model.PageTypeTerms:    0.8,
	model.PageTypeFAQ:      0.75,
	model.PageTypeBooking:  0.7,
	model.PageTypeHomepage: 0.6,
	model.PageTypeAbout:    0.5,
	model.PageTypeGallery:  0.1,
	model.PageTypeBlog:     0.1,
	model.PageTypeOther:    0.3,
}

// RelevanceScore estimates how useful a page is for extraction (0-1).
func RelevanceScore(pageType model.PageType, signals Signals) float64 {
	relevance, ok := baseRelevance[pageType]
	if !ok {
		relevance = 0.3
	}

	if signals.HasPricingSignals {
		relevance = min(1.0, relevance+0.2)
	}
	if signals.HasContactSignals {
		relevance = min(1.0, relevance+0.1)
	}

	// Short pages rarely carry complete data.
	switch {
	case signals.WordCount < 100:
		relevance *= 0.5
	case signals.WordCount < 300:
		relevance *= 0.8
	}

	return relevance
}

// ClassifyWithRules runs the rule-based pass over one page, filling
// its classification fields in place.
func ClassifyWithRules(page *model.CrawledPage) {
	signals := AnalyzeSignals(page.Markdown)

	pageType, confidence := ClassifyByURL(page.URL)
	switch {
	case pageType != "":
	case signals.HasPricingSignals && signals.PricingCount > 5:
		pageType, confidence = model.PageTypePricing, 0.7
	case signals.HasContactSignals && signals.ContactCount > 3:
		pageType, confidence = model.PageTypeContact, 0.6
	default:
		pageType, confidence = model.PageTypeOther, 0.3
	}

	page.PageType = pageType
	page.TypeConfidence = confidence
	page.RelevanceScore = RelevanceScore(pageType, signals)
	page.HasPricingSignals = signals.HasPricingSignals
	page.HasContactSignals = signals.HasContactSignals
	page.WordCount = signals.WordCount
}
