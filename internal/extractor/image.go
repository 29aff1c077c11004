package extractor

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minImagePixels rejects declared-tiny images (icons, spacers) in the
// last-resort scan.
const minImagePixels = 120

var genericImageSelectors = []string{
	".product-image img",
	".main-image img",
	".primary-image img",
	`[class*="product-image"] img`,
	`[class*="hero"] img`,
	`[class*="gallery"] img`,
	`[data-testid*="image"] img`,
	`img[itemprop="image"]`,
	`img[alt*="product"]`,
}

// srcAttributes in lookup order; lazy-loading markup often leaves src
// pointing at a placeholder.
var srcAttributes = []string{"src", "data-src", "data-lazy-src", "data-original"}

// extractImage runs the image cascade: OpenGraph metadata, known gallery
// and hero containers, then the first plausibly-large image on the page.
// The result is always an absolute URL.
func extractImage(doc *goquery.Document, pageURL string) string {
	if src := metaContent(doc, "og:image", "og:image:secure_url", "twitter:image"); src != "" {
		if abs := absoluteImageURL(src, pageURL); abs != "" {
			return abs
		}
	}

	for _, sel := range genericImageSelectors {
		if src := imageSrc(doc.Find(sel).First()); src != "" {
			if abs := absoluteImageURL(src, pageURL); abs != "" {
				return abs
			}
		}
	}

	var found string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if tooSmall(img) {
			return true
		}
		src := imageSrc(img)
		if src == "" {
			return true
		}
		if abs := absoluteImageURL(src, pageURL); abs != "" {
			found = abs
			return false
		}
		return true
	})
	return found
}

func imageSrc(img *goquery.Selection) string {
	for _, attr := range srcAttributes {
		if src := strings.TrimSpace(img.AttrOr(attr, "")); src != "" && !strings.HasPrefix(src, "data:") {
			return src
		}
	}
	return ""
}

// tooSmall reports whether the image declares dimensions below the
// threshold. Images without declared dimensions pass.
func tooSmall(img *goquery.Selection) bool {
	for _, attr := range []string{"width", "height"} {
		raw, ok := img.Attr(attr)
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(raw), "px")); err == nil && v < minImagePixels {
			return true
		}
	}
	return false
}

// absoluteImageURL resolves src against the page URL. Protocol-relative
// sources get https; unresolvable sources are dropped.
func absoluteImageURL(src, pageURL string) string {
	if strings.HasPrefix(src, "//") {
		return "https:" + src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return ""
		}
		return src
	}
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return ""
	}
	return base.ResolveReference(ref).String()
}
