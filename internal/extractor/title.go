package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	minTitleLength = 5
	maxTitleLength = 200
)

// genericTitleSelectors is the fallback cascade for sites without
// dedicated rules, ordered most-specific first.
var genericTitleSelectors = []string{
	`h1[class*="title"]`,
	`h1[id*="title"]`,
	`[data-testid*="title"]`,
	".product-title",
	".product-name",
	`[class*="product-title"]`,
	`[class*="product-name"]`,
	`[itemprop="name"]`,
	"h1",
}

var badTitleRe = regexp.MustCompile(`(?i)^(video|image|hero|banner|logo)$`)

// titleSeparators split retailer boilerplate off <title> contents, e.g.
// "Widget Blaster - Smyths Toys UK".
var titleSeparators = []string{" | ", " - ", " – ", " :: "}

// extractTitle runs the title cascade: site rules, OpenGraph and meta
// titles, the document <title>, then generic heading selectors.
func extractTitle(doc *goquery.Document, site *siteRules) string {
	if site != nil {
		for _, sel := range site.title {
			if t := validTitle(doc.Find(sel).First().Text()); t != "" {
				return t
			}
		}
	}

	if t := validTitle(metaContent(doc, "og:title", "twitter:title", "title")); t != "" {
		return t
	}

	if t := validTitle(pageTitle(doc)); t != "" {
		return t
	}

	for _, sel := range genericTitleSelectors {
		if t := validTitle(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// pageTitle returns the <title> text with trailing site boilerplate
// stripped at the first separator.
func pageTitle(doc *goquery.Document) string {
	title := cleanText(doc.Find("title").First().Text())
	for _, sep := range titleSeparators {
		if head, _, found := strings.Cut(title, sep); found {
			title = head
			break
		}
	}
	return title
}

// validTitle normalizes a candidate and rejects obviously-wrong values:
// too short, placeholder words, or oversized blobs of page text.
func validTitle(raw string) string {
	t := cleanText(raw)
	if len(t) <= minTitleLength {
		return ""
	}
	if badTitleRe.MatchString(t) {
		return ""
	}
	if len(t) > maxTitleLength {
		t = cleanText(t[:maxTitleLength])
	}
	return t
}
