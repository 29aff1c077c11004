package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractOpenGraphProduct(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Widget">
		<meta property="og:price:amount" content="19.99">
		<meta property="og:image" content="https://cdn.example.com/widget.jpg">
	</head><body></body></html>`

	record := New().Extract(html, "https://example.com/products/widget")

	assert.Equal(t, "Widget", record.Title)
	assert.Equal(t, "19.99", record.Price)
	assert.Equal(t, "USD", record.Currency)
	assert.Equal(t, "https://cdn.example.com/widget.jpg", record.Image)
	assert.Equal(t, "https://example.com/products/widget", record.URL)
}

func TestExtractIgnoresStrikethroughPrice(t *testing.T) {
	html := `<html><body><div class="pricing">
		<span class="was-price">£59.99</span>
		<span class="now-price">£39.99</span>
	</div></body></html>`

	record := New().Extract(html, "https://shop.example.co.uk/item/42")

	assert.Equal(t, "39.99", record.Price)
	assert.Equal(t, "GBP", record.Currency)
}

func TestExtractStruckTagPriceExcluded(t *testing.T) {
	html := `<html><body>
		<del>£100.00</del>
		<span class="sale-price">£75.00</span>
	</body></html>`

	record := New().Extract(html, "https://shop.example.co.uk/item")
	assert.Equal(t, "75.00", record.Price)
}

func TestExtractMalformedHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"truncated", "<html><body>"},
		{"empty", ""},
		{"garbage", "<<<not html>>>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := New().Extract(tt.html, "https://example.com/p")
			assert.Equal(t, "https://example.com/p", record.URL)
			assert.Empty(t, record.Title)
			assert.Empty(t, record.Price)
			assert.Empty(t, record.Currency)
			assert.Empty(t, record.Description)
			assert.Empty(t, record.Image)
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	html := `<html><head><title>Rocket Kit - Example Shop</title></head><body>
		<span class="product-price">£12.50</span>
		<p>Includes everything needed to build a working model rocket at home.</p>
	</body></html>`

	e := New()
	first := e.Extract(html, "https://shop.example.co.uk/rocket")
	second := e.Extract(html, "https://shop.example.co.uk/rocket")
	assert.Equal(t, first, second)
}

func TestSiteRulesFor(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"amazon uk", "https://www.amazon.co.uk/dp/B0ABC", "amazon"},
		{"amazon com subdomain", "https://smile.amazon.com/dp/B0ABC", "amazon"},
		{"john lewis", "https://www.johnlewis.com/product/p1", "johnlewis"},
		{"smyths", "https://www.smythstoys.com/uk/toy/p/1", "smythstoys"},
		{"unknown site", "https://example.org/product", ""},
		{"unparseable", "://nope", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := siteRulesFor(tt.url)
			if tt.want == "" {
				assert.Nil(t, rules)
				return
			}
			require.NotNil(t, rules)
			assert.Same(t, siteRuleTable[tt.want], rules)
		})
	}
}

func TestSiteWhitelistBeatsScoring(t *testing.T) {
	// Smyths disables the scored scan: the carousel prices must never win.
	html := `<html><body>
		<span data-test="product-price">£24.99</span>
		<div class="recommendations">£9.99 £8.99 £7.99</div>
	</body></html>`

	record := New().Extract(html, "https://www.smythstoys.com/uk/toys/p/12345")
	assert.Equal(t, "24.99", record.Price)
	assert.Equal(t, "GBP", record.Currency)
}

func TestScoringPrefersMarkedPriceElement(t *testing.T) {
	html := `<html><body>
		<div><span>£5.00</span></div>
		<span class="product-price">£29.99</span>
	</body></html>`

	record := New().Extract(html, "https://example.com/p")
	assert.Equal(t, "29.99", record.Price)
}
