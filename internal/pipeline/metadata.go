package pipeline

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// htmlMetadata pulls the title and meta description out of raw HTML.
// Used when the capture response carries content but no metadata.
func htmlMetadata(html string) (title, description string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find(`meta[name="description"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if content, ok := s.Attr("content"); ok {
			description = strings.TrimSpace(content)
			return false
		}
		return true
	})
	if description == "" {
		doc.Find(`meta[property="og:description"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if content, ok := s.Attr("content"); ok {
				description = strings.TrimSpace(content)
				return false
			}
			return true
		})
	}

	return title, description
}
