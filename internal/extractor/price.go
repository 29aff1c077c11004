package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pricePattern matches a currency marker followed by a plausible amount.
// Multi-character symbols come before "$" so C$ and A$ win the alternation.
var pricePattern = regexp.MustCompile(
	`(?i)(?:C\$|A\$|R\$|US\$|\$|£|€|¥|₹|₽|₩|USD|EUR|GBP|JPY|CAD|AUD|CHF|SEK|NOK|DKK|PLN|CZK|INR|CNY|KRW|BRL|MXN|ZAR)\s*(\d{1,3}(?:[,.]\d{3})*(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`)

// numericPattern pulls a bare amount out of already-located price text.
var numericPattern = regexp.MustCompile(`\d{1,3}(?:[,.]\d{3})*(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?`)

var (
	// Class/id fragments that mark an element as carrying the live price.
	positivePriceRe = regexp.MustCompile(`(?i)total|price|sale|now|prc|current|cost|amount`)
	// Fragments that mark crossed-out, navigational or aggregate amounts.
	negativePriceRe = regexp.MustCompile(`(?i)original|header|items|under|cart|more|nav|upsell|old|was|list|rrp|bundle|shipping|tax|vat`)
	// Markers that disqualify a candidate outright, not just penalize it.
	strikethroughRe = regexp.MustCompile(`(?i)(^|[^a-z])(was|strike|strikethrough|rrp|original|old)([^a-z]|$)`)

	ogPriceKeyRe = regexp.MustCompile(`(?i):price(:amount)?$`)
)

// Tags whose text is never a displayed price, or is explicitly the
// previous price.
var disqualifiedPriceTags = map[string]bool{
	"script": true,
	"style":  true,
	"link":   true,
	"meta":   true,
	"del":    true,
	"s":      true,
	"strike": true,
}

// extractPrice runs the price cascade and returns the normalized amount
// plus the raw text it was found in. The raw text still carries the
// currency marker, so currency detection runs on it rather than the
// cleaned number.
func extractPrice(doc *goquery.Document, site *siteRules) (clean, raw string) {
	if raw = openGraphPrice(doc); raw != "" {
		if clean = cleanPrice(raw); clean != "" {
			return clean, raw
		}
	}

	if site != nil {
		for _, sel := range site.price {
			text := stripWhitespace(doc.Find(sel).First().Text())
			if pricePattern.MatchString(text) || numericPattern.MatchString(text) {
				if clean = cleanPrice(text); clean != "" {
					return clean, text
				}
			}
		}
	}

	if scoringEnabled(site) {
		if c := scanForPrice(doc); c != nil {
			return cleanPrice(c.amount), c.text
		}
	}
	return "", ""
}

// openGraphPrice checks product metadata: og:price:amount,
// product:price:amount and similar keys.
func openGraphPrice(doc *goquery.Document) string {
	var value string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		key, ok := s.Attr("property")
		if !ok {
			key, _ = s.Attr("name")
		}
		if !ogPriceKeyRe.MatchString(key) {
			return true
		}
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content != "" && numericPattern.MatchString(content) {
			value = content
			return false
		}
		return true
	})
	return value
}

// priceCandidate is one element whose text contains exactly one price.
type priceCandidate struct {
	text   string
	amount string
	score  float64
	index  int
}

// scanForPrice walks every element, keeps the ones containing exactly one
// price, scores them by how price-like their markup is and returns the
// highest scorer. Crossed-out prices are excluded before scoring so a
// "was £59.99" can never outrank the live price on points.
func scanForPrice(doc *goquery.Document) *priceCandidate {
	var candidates []priceCandidate

	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		if disqualifiedPriceTags[tag] {
			return
		}

		text := stripWhitespace(s.Text())
		if text == "" || len(text) > 500 {
			return
		}
		matches := pricePattern.FindAllStringSubmatch(text, -1)
		if len(matches) != 1 {
			return
		}
		if isStruckThrough(s) {
			return
		}

		candidates = append(candidates, priceCandidate{
			text:   text,
			amount: matches[0][1],
			score:  scorePriceCandidate(s, tag, text, matches[0][1], i),
			index:  i,
		})
	})

	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	return &candidates[0]
}

// isStruckThrough reports whether the element or any ancestor is marked
// as a previous price, via strikethrough tags or class/id naming.
func isStruckThrough(s *goquery.Selection) bool {
	for cur := s; cur.Length() > 0; cur = cur.Parent() {
		tag := goquery.NodeName(cur)
		if tag == "del" || tag == "s" || tag == "strike" || tag == "html" {
			return tag != "html"
		}
		marker := cur.AttrOr("class", "") + " " + cur.AttrOr("id", "")
		if strikethroughRe.MatchString(marker) {
			return true
		}
	}
	return false
}

func scorePriceCandidate(s *goquery.Selection, tag, text, amount string, index int) float64 {
	var score float64

	lower := strings.ToLower(text)
	if strings.Contains(lower, "price") {
		score += 10
	}
	if strings.Contains(amount, ".") {
		score += 4
	}
	if strings.Contains(amount, ",") {
		score += 2
	}
	if strings.ContainsAny(amount, "123456789") {
		score += 2
	}

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "b", "strong", "span":
		score++
	case "a":
		score -= 100
	}

	class := s.AttrOr("class", "")
	id := s.AttrOr("id", "")
	marker := class + " " + id
	switch {
	case positivePriceRe.MatchString(marker):
		score += 10
	case negativePriceRe.MatchString(marker):
		score -= 5
	}
	if class == "" && id == "" {
		score -= 10
	}

	// Context: an unmarked element inside a price container still counts.
	parent := s.Parent()
	for depth := 0; depth < 2 && parent.Length() > 0; depth++ {
		parentMarker := parent.AttrOr("class", "") + " " + parent.AttrOr("id", "")
		if positivePriceRe.MatchString(parentMarker) {
			score += 5
			break
		}
		if negativePriceRe.MatchString(parentMarker) {
			score -= 5
			break
		}
		parent = parent.Parent()
	}

	if strings.Contains(strings.ToLower(s.AttrOr("style", "")), "display:none") {
		score -= 100
	}

	// Prefer short, early elements: long text blobs and footer content
	// rank below a tight price element.
	score -= float64(len(text)) / 100
	score -= float64(index) * 0.1

	return score
}

// cleanPrice normalizes raw price text to a plain decimal string. The
// digits stay exactly as matched, only separators are rewritten; no
// float round-trip, no fabricated decimals. Returns "" when no amount
// can be recovered.
func cleanPrice(raw string) string {
	amount := numericPattern.FindString(stripWhitespace(raw))
	if amount == "" {
		return ""
	}

	// Disambiguate separators: with both present the comma groups
	// thousands; a lone comma followed by one or two digits is a decimal
	// comma, otherwise it groups thousands.
	hasComma := strings.Contains(amount, ",")
	hasDot := strings.Contains(amount, ".")
	switch {
	case hasComma && hasDot:
		amount = strings.ReplaceAll(amount, ",", "")
	case hasComma:
		head, tail, _ := strings.Cut(amount, ",")
		if len(tail) <= 2 && !strings.Contains(tail, ",") {
			amount = head + "." + tail
		} else {
			amount = strings.ReplaceAll(amount, ",", "")
		}
	}

	if !strings.ContainsAny(amount, "123456789") {
		return ""
	}
	return amount
}
