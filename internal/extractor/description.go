package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	minDescriptionLength = 20
	maxDescriptionLength = 800
	maxBulletPoints      = 5
)

var genericDescriptionSelectors = []string{
	`[class*="product-description"]`,
	`[class*="description"]:not([class*="short"])`,
	`[data-testid*="description"]`,
	`[itemprop="description"]`,
	".product-details",
	"#description",
}

// Text that looks like chrome rather than a product description.
var boilerplateRe = regexp.MustCompile(
	`(?i)^(click here|read more|show more|see more|cookie|javascript|sign in|log in|add to (basket|cart|trolley)|free delivery)`)

// Words that suggest the text actually describes a product.
var productIndicatorRe = regexp.MustCompile(
	`(?i)\b(features?|made|includes?|designed|material|size|dimensions?|suitable|perfect|quality|colou?r)\b`)

// extractDescription runs the description cascade: site rules, meta
// descriptions, generic containers, then the first substantial paragraph.
func extractDescription(doc *goquery.Document, site *siteRules) string {
	if site != nil {
		for _, sel := range site.description {
			node := doc.Find(sel).First()
			if node.Length() == 0 {
				continue
			}
			text := descriptionText(node)
			if d := validDescription(text); d != "" {
				return d
			}
		}
	}

	if d := validDescription(metaContent(doc, "description", "og:description")); d != "" {
		return d
	}

	for _, sel := range genericDescriptionSelectors {
		if d := validDescription(cleanText(doc.Find(sel).First().Text())); d != "" {
			return d
		}
	}

	var fromParagraph string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := cleanText(s.Text())
		if len(text) >= 50 {
			if d := validDescription(text); d != "" {
				fromParagraph = d
				return false
			}
		}
		return true
	})
	return fromParagraph
}

// descriptionText flattens a description node. Bullet lists become a
// sentence-joined summary of the leading items; anything else is the
// node's collapsed text.
func descriptionText(node *goquery.Selection) string {
	if goquery.NodeName(node) == "ul" || node.Find("li").Length() > 0 {
		var bullets []string
		node.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			if text := cleanText(li.Text()); text != "" {
				bullets = append(bullets, strings.TrimRight(text, "."))
			}
			return len(bullets) < maxBulletPoints
		})
		if len(bullets) > 0 {
			return strings.Join(bullets, ". ") + "."
		}
	}
	return cleanText(node.Text())
}

// validDescription filters boilerplate and truncates oversized text.
func validDescription(text string) string {
	d := cleanText(text)
	if len(d) < minDescriptionLength {
		return ""
	}
	if boilerplateRe.MatchString(d) {
		return ""
	}
	// Short texts must earn their place by sounding like product copy.
	if len(d) < 50 && !productIndicatorRe.MatchString(d) {
		return ""
	}
	if len(d) > maxDescriptionLength {
		cut := d[:maxDescriptionLength]
		if i := strings.LastIndex(cut, " "); i > maxDescriptionLength/2 {
			cut = cut[:i]
		}
		d = cut + "..."
	}
	return d
}
