package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pawsight/extract-cli/internal/model"
	"github.com/pawsight/extract-cli/pkg/anthropic"
)

// Pages with rule confidence below this are sent for LLM refinement.
const refineThreshold = 0.7

const llmBatchSize = 10

// Classifier runs the two-pass page classification. A nil LLM client
// means rules only.
type Classifier struct {
	llm       anthropic.Client
	model     string
	maxTokens int
}

// NewClassifier builds a Classifier. llm may be nil to disable the
// refinement pass.
func NewClassifier(llm anthropic.Client, llmModel string, maxTokens int) *Classifier {
	return &Classifier{llm: llm, model: llmModel, maxTokens: maxTokens}
}

// ClassifyPages classifies every page in place: rules first, then LLM
// refinement for pages the rules were unsure about. Refinement errors
// are logged and swallowed so the rule results stand.
func (c *Classifier) ClassifyPages(ctx context.Context, pages []model.CrawledPage) []model.CrawledPage {
	for i := range pages {
		ClassifyWithRules(&pages[i])
	}

	if c.llm == nil {
		return pages
	}

	var uncertain []*model.CrawledPage
	for i := range pages {
		if pages[i].TypeConfidence < refineThreshold {
			uncertain = append(uncertain, &pages[i])
		}
	}

	for start := 0; start < len(uncertain); start += llmBatchSize {
		end := min(start+llmBatchSize, len(uncertain))
		batch := uncertain[start:end]

		if err := c.refineBatch(ctx, batch); err != nil {
			zap.L().Warn("llm page classification failed, keeping rule results",
				zap.Error(err),
				zap.Int("batch_size", len(batch)),
			)
		}
	}

	return pages
}

type llmClassification struct {
	PageIndex  int     `json:"page_index"`
	PageType   string  `json:"page_type"`
	Confidence float64 `json:"confidence"`
	Relevance  float64 `json:"relevance"`
	Reason     string  `json:"reason"`
}

func (c *Classifier) refineBatch(ctx context.Context, batch []*model.CrawledPage) error {
	resp, err := c.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: int64(c.maxTokens * len(batch)),
		Messages: []anthropic.Message{
			{Role: "user", Content: buildClassificationPrompt(batch)},
		},
	})
	if err != nil {
		return err
	}
	resp.Usage.LogCost(c.model, "classify")

	results, err := parseLLMResponse(resp.Text)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.PageIndex < 0 || r.PageIndex >= len(batch) {
			continue
		}
		page := batch[r.PageIndex]
		// Only adopt the LLM's view when it is more confident.
		if r.Confidence <= page.TypeConfidence {
			continue
		}
		page.PageType = parsePageType(r.PageType)
		page.TypeConfidence = r.Confidence
		page.RelevanceScore = r.Relevance
	}

	return nil
}

func buildClassificationPrompt(batch []*model.CrawledPage) string {
	var b strings.Builder
	b.WriteString(`You are classifying web pages from a pet care business website.
For each page, determine:
1. page_type: One of: pricing, contact, about, services, terms, faq, booking, gallery, blog, homepage, other
2. confidence: 0.0 to 1.0
3. relevance: 0.0 to 1.0 (how useful for extracting business info like prices, contact, policies)

Focus on:
- PRICING pages have prices, rates, fees, tariffs
- CONTACT pages have address, phone, email, location
- SERVICES pages describe what the business offers
- TERMS pages have T&Cs, policies, cancellation rules
- FAQ pages have common questions and answers

Return JSON array with one object per page:
[{"page_index": 0, "page_type": "pricing", "confidence": 0.9, "relevance": 0.95, "reason": "Contains price list"}]

Pages to classify:
`)

	for i, page := range batch {
		preview := page.Markdown
		if len(preview) > 1500 {
			preview = preview[:1500]
		}
		if preview == "" {
			preview = "(empty)"
		}
		title := page.Title
		if title == "" {
			title = "(no title)"
		}
		fmt.Fprintf(&b, "\n---\nPage %d:\nURL: %s\nTitle: %s\nContent preview:\n%s\n---\n",
			i, page.URL, title, preview)
	}

	return b.String()
}

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

func parseLLMResponse(text string) ([]llmClassification, error) {
	raw := jsonArrayRe.FindString(text)
	if raw == "" {
		return nil, eris.New("classify: no JSON array in response")
	}

	var results []llmClassification
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, eris.Wrap(err, "classify: parse response")
	}
	return results, nil
}

func parsePageType(s string) model.PageType {
	pt := model.PageType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range model.AllPageTypes() {
		if pt == known {
			return pt
		}
	}
	return model.PageTypeOther
}

// Summary aggregates classification results across a crawl.
type Summary struct {
	TotalPages         int                    `json:"total_pages"`
	TypeDistribution   map[model.PageType]int `json:"type_distribution"`
	AverageRelevance   float64                `json:"average_relevance"`
	HighRelevancePages int                    `json:"high_relevance_pages"`
	PagesWithPricing   int                    `json:"pages_with_pricing_signals"`
	PagesWithContact   int                    `json:"pages_with_contact_signals"`
}

// Summarize builds a Summary over classified pages.
func Summarize(pages []model.CrawledPage) Summary {
	s := Summary{
		TotalPages:       len(pages),
		TypeDistribution: make(map[model.PageType]int),
	}

	var totalRelevance float64
	for _, p := range pages {
		s.TypeDistribution[p.PageType]++
		totalRelevance += p.RelevanceScore
		if p.RelevanceScore >= 0.7 {
			s.HighRelevancePages++
		}
		if p.HasPricingSignals {
			s.PagesWithPricing++
		}
		if p.HasContactSignals {
			s.PagesWithContact++
		}
	}
	if len(pages) > 0 {
		s.AverageRelevance = totalRelevance / float64(len(pages))
	}

	return s
}
