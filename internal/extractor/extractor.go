// Package extractor turns rendered HTML into a typed product record using
// ordered cascades of heuristic selector strategies. Extraction is pure:
// no I/O, deterministic, and it never fails — a field that cannot be
// determined is reported absent, never invented.
package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/scrapiee/scrapiee/internal/models"
)

// Method identifies the heuristic cascade version in response metadata.
const Method = "smart-selectors"

var whitespaceRe = regexp.MustCompile(`\s+`)

// Extractor holds the compiled rule tables. Stateless and safe for
// concurrent use.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract parses html and runs the per-field cascades. The source URL is
// used for site-specific rules and currency/TLD inference and is copied
// into the record verbatim. Malformed or truncated HTML yields a record
// with absent fields, never an error.
func (e *Extractor) Extract(html, pageURL string) models.ProductRecord {
	record := models.ProductRecord{URL: pageURL}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return record
	}

	site := siteRulesFor(pageURL)

	record.Title = extractTitle(doc, site)
	price, rawPrice := extractPrice(doc, site)
	record.Price = price
	record.Currency = detectCurrency(rawPrice, pageURL)
	record.Description = extractDescription(doc, site)
	record.Image = extractImage(doc, pageURL)

	return record
}

// cleanText collapses runs of whitespace into single spaces.
func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// stripWhitespace removes all whitespace, used before price pattern
// matching so "£ 39 . 99"-style markup still matches.
func stripWhitespace(s string) string {
	return whitespaceRe.ReplaceAllString(s, "")
}

// metaContent returns the content of the first meta tag whose property or
// name attribute equals one of the given keys.
func metaContent(doc *goquery.Document, keys ...string) string {
	var value string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		attr, ok := s.Attr("property")
		if !ok {
			attr, _ = s.Attr("name")
		}
		for _, key := range keys {
			if attr == key {
				if content, ok := s.Attr("content"); ok && strings.TrimSpace(content) != "" {
					value = strings.TrimSpace(content)
					return false
				}
			}
		}
		return true
	})
	return value
}
