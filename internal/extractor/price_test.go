package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"symbol and decimals", "£39.99", "39.99"},
		{"thousands separator", "$1,299.00", "1299.00"},
		{"decimal comma", "59,99", "59.99"},
		{"bare thousands comma", "1,299", "1299"},
		{"integer keeps digits as matched", "45", "45"},
		{"single decimal digit preserved", "4.5", "4.5"},
		{"spaced markup", "£ 39 . 99", "39.99"},
		{"no digits", "free", ""},
		{"zero", "0.00", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanPrice(tt.raw))
		})
	}
}

func TestOpenGraphPrice(t *testing.T) {
	doc := parseDoc(t, `<html><head>
		<meta property="og:description" content="not a price">
		<meta property="product:price:amount" content="34.50">
	</head></html>`)

	assert.Equal(t, "34.50", openGraphPrice(doc))
}

func TestOpenGraphPriceAbsent(t *testing.T) {
	doc := parseDoc(t, `<html><head><meta property="og:title" content="Thing"></head></html>`)
	assert.Empty(t, openGraphPrice(doc))
}

func TestScanSkipsMultiPriceContainers(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div class="price-grid">£10.00 £20.00 £30.00</div>
		<span class="current-price">£20.00</span>
	</body></html>`)

	c := scanForPrice(doc)
	require.NotNil(t, c)
	assert.Equal(t, "20.00", c.amount)
}

func TestScanSkipsHiddenPrices(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<span class="price" style="display:none">£99.99</span>
		<span class="price">£49.99</span>
	</body></html>`)

	c := scanForPrice(doc)
	require.NotNil(t, c)
	assert.Equal(t, "49.99", c.amount)
}

func TestScanNoCandidates(t *testing.T) {
	doc := parseDoc(t, `<html><body><p>Out of stock</p></body></html>`)
	assert.Nil(t, scanForPrice(doc))
}

func TestIsStruckThrough(t *testing.T) {
	tests := []struct {
		name string
		html string
		sel  string
		want bool
	}{
		{"del tag", `<del id="x">£1.00</del>`, "#x", true},
		{"inside del", `<del><span id="x">£1.00</span></del>`, "#x", true},
		{"was class", `<span id="x" class="was-price">£1.00</span>`, "#x", true},
		{"rrp ancestor", `<div class="rrp"><span id="x">£1.00</span></div>`, "#x", true},
		{"live price", `<span id="x" class="now-price">£1.00</span>`, "#x", false},
		{"unrelated class", `<span id="x" class="swatch">£1.00</span>`, "#x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, "<html><body>"+tt.html+"</body></html>")
			node := doc.Find(tt.sel)
			require.Equal(t, 1, node.Length())
			assert.Equal(t, tt.want, isStruckThrough(node))
		})
	}
}

func TestExtractPriceReturnsRawTextForCurrency(t *testing.T) {
	doc := parseDoc(t, `<html><body><span class="product-price">£18.00</span></body></html>`)

	clean, raw := extractPrice(doc, nil)
	assert.Equal(t, "18.00", clean)
	assert.Contains(t, raw, "£")
}
