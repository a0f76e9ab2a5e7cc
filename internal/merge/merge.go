// Package merge combines classified crawl pages into one document for
// the extraction pass, highest-value pages first, under a token budget.
package merge

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pawsight/extract-cli/internal/model"
)

// Conservative token estimate per word of English text.
const tokensPerWord = 1.3

// Options control page selection and budget.
type Options struct {
	TokenBudget  int
	MaxPages     int
	MinRelevance float64
}

// DefaultOptions returns the stock merge limits.
func DefaultOptions() Options {
	return Options{
		TokenBudget:  100000,
		MaxPages:     20,
		MinRelevance: 0.2,
	}
}

// Page types in inclusion order. Pricing content is never cut.
var typePriority = map[model.PageType]int{
	model.PageTypePricing:  0,
	model.PageTypeServices: 1,
	model.PageTypeContact:  2,
	model.PageTypeTerms:    3,
	model.PageTypeFAQ:      4,
	model.PageTypeBooking:  5,
	model.PageTypeAbout:    6,
	model.PageTypeHomepage: 7,
}

// Page types never included in extraction input.
var excludedTypes = map[model.PageType]bool{
	model.PageTypeBlog:    true,
	model.PageTypeGallery: true,
}

// MergedContent is the single extraction-ready document built from a crawl.
type MergedContent struct {
	CrawlID       string           `json:"crawl_id"`
	BusinessURL   string           `json:"business_url"`
	BusinessType  model.BusinessType `json:"business_type"`
	Markdown      string           `json:"markdown"`
	SourcePages   []string         `json:"source_pages"`
	TypesIncluded []model.PageType `json:"page_types_included"`
	PagesMerged   int              `json:"pages_merged"`
	PagesExcluded int              `json:"pages_excluded"`
	TokenEstimate int              `json:"token_estimate"`
	MergedAt      time.Time        `json:"merged_at"`
}

// EstimateTokens approximates the token count of text.
func EstimateTokens(text string) int {
	return int(float64(len(strings.Fields(text))) * tokensPerWord)
}

func pagePriority(pt model.PageType) int {
	if excludedTypes[pt] {
		return 999
	}
	if p, ok := typePriority[pt]; ok {
		return p
	}
	return len(typePriority)
}

// FilterRelevant drops excluded, low-relevance, and near-empty pages.
func FilterRelevant(pages []model.CrawledPage, opts Options) []model.CrawledPage {
	var out []model.CrawledPage
	for _, p := range pages {
		if excludedTypes[p.PageType] {
			continue
		}
		if p.RelevanceScore < opts.MinRelevance {
			continue
		}
		if p.Markdown == "" || p.WordCount < 50 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortByPriority orders pages for inclusion: type priority first, then
// relevance, then pricing-signal presence.
func SortByPriority(pages []model.CrawledPage) []model.CrawledPage {
	sorted := make([]model.CrawledPage, len(pages))
	copy(sorted, pages)

	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := pagePriority(sorted[i].PageType), pagePriority(sorted[j].PageType)
		if pi != pj {
			return pi < pj
		}
		if sorted[i].RelevanceScore != sorted[j].RelevanceScore {
			return sorted[i].RelevanceScore > sorted[j].RelevanceScore
		}
		return sorted[i].HasPricingSignals && !sorted[j].HasPricingSignals
	})

	return sorted
}

func formatPage(p model.CrawledPage) string {
	label := strings.ToUpper(string(p.PageType))
	if label == "" {
		label = "PAGE"
	}
	title := p.Title
	if title == "" {
		title = "Untitled"
	}

	divider := strings.Repeat("=", 80)
	return fmt.Sprintf("\n%s\n%s PAGE: %s\nSource URL: %s\n%s\n\n%s",
		divider, label, title, p.URL, divider, p.Markdown)
}

// Merge builds the extraction document for one crawl. At least the
// highest-priority page is always included even when it alone exceeds
// the token budget.
func Merge(pages []model.CrawledPage, crawlID string, record model.BusinessRecord, opts Options) MergedContent {
	sorted := SortByPriority(FilterRelevant(pages, opts))

	merged := MergedContent{
		CrawlID:      crawlID,
		BusinessURL:  record.URL,
		BusinessType: record.BusinessType,
		MergedAt:     time.Now().UTC(),
	}

	header := buildHeader(crawlID, record)
	parts := []string{header}
	merged.TokenEstimate = EstimateTokens(header)

	seen := make(map[model.PageType]bool)
	for _, p := range sorted {
		if merged.PagesMerged >= opts.MaxPages {
			break
		}

		content := formatPage(p)
		tokens := EstimateTokens(content)
		if merged.PagesMerged > 0 && merged.TokenEstimate+tokens > opts.TokenBudget {
			break
		}

		parts = append(parts, content)
		merged.SourcePages = append(merged.SourcePages, p.URL)
		if p.PageType != "" && !seen[p.PageType] {
			seen[p.PageType] = true
			merged.TypesIncluded = append(merged.TypesIncluded, p.PageType)
		}
		merged.TokenEstimate += tokens
		merged.PagesMerged++
	}

	parts = append(parts, buildFooter(merged))
	merged.Markdown = strings.Join(parts, "\n")
	merged.PagesExcluded = len(pages) - merged.PagesMerged

	return merged
}

func buildHeader(crawlID string, record model.BusinessRecord) string {
	divider := strings.Repeat("#", 80)
	return fmt.Sprintf(`
%s
#  BUSINESS DATA EXTRACTION DOCUMENT
#  Business Type: %s
#  Primary URL: %s
#  Crawl ID: %s
%s

INSTRUCTIONS FOR EXTRACTION:
This document contains merged content from multiple pages of a pet care business
website. Extract all relevant business information including:
- Business name and description
- Contact details (phone, email, address)
- All services and their prices
- Vaccination requirements
- Policies (cancellation, deposit, drop-off/pick-up)
- Opening hours
- Amenities and special features

The pages are ordered by relevance, with pricing information first.

%s
BEGIN WEBSITE CONTENT
%s`,
		divider, record.BusinessType, record.URL, crawlID, divider,
		strings.Repeat("=", 80), strings.Repeat("=", 80))
}

func buildFooter(merged MergedContent) string {
	types := make([]string, len(merged.TypesIncluded))
	for i, pt := range merged.TypesIncluded {
		types[i] = string(pt)
	}
	divider := strings.Repeat("=", 80)
	return fmt.Sprintf("\n\n%s\nEND WEBSITE CONTENT\n%s\n\nTotal pages included: %d\nPage types: %s\n",
		divider, divider, merged.PagesMerged, strings.Join(types, ", "))
}

// Summary renders a human-readable account of the merge.
func Summary(merged MergedContent) string {
	var b strings.Builder
	b.WriteString("Merge Summary\n=============\n")
	fmt.Fprintf(&b, "Business URL: %s\n", merged.BusinessURL)
	fmt.Fprintf(&b, "Business Type: %s\n", merged.BusinessType)
	fmt.Fprintf(&b, "Crawl ID: %s\n\n", merged.CrawlID)
	fmt.Fprintf(&b, "Pages merged: %d\n", merged.PagesMerged)
	fmt.Fprintf(&b, "Pages excluded: %d\n", merged.PagesExcluded)
	fmt.Fprintf(&b, "Estimated tokens: %d\n\n", merged.TokenEstimate)
	b.WriteString("Source pages:\n")
	for _, url := range merged.SourcePages {
		fmt.Fprintf(&b, "  - %s\n", url)
	}
	return b.String()
}
