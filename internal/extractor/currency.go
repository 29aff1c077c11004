package extractor

import (
	"net/url"
	"regexp"
	"strings"
)

var currencyCodeRe = regexp.MustCompile(
	`(?i)\b(USD|EUR|GBP|JPY|CAD|AUD|CHF|SEK|NOK|DKK|PLN|CZK|HUF|RUB|INR|CNY|KRW|BRL|MXN|ZAR)\b`)

// currencySymbols maps symbols to ISO codes. Ordered: compound symbols
// like C$ must be checked before the bare "$".
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"C$", "CAD"},
	{"A$", "AUD"},
	{"R$", "BRL"},
	{"US$", "USD"},
	{"£", "GBP"},
	{"€", "EUR"},
	{"₹", "INR"},
	{"₽", "RUB"},
	{"₩", "KRW"},
	{"¥", "JPY"},
	{"$", "USD"},
	{"zł", "PLN"},
	{"kr", "SEK"},
}

// tldCurrencies maps host suffixes to the currency a retailer on that
// domain prices in. Ordered: multi-label suffixes before their parents.
var tldCurrencies = []struct {
	suffix string
	code   string
}{
	{".co.uk", "GBP"},
	{".org.uk", "GBP"},
	{".com.au", "AUD"},
	{".co.jp", "JPY"},
	{".co.in", "INR"},
	{".com.br", "BRL"},
	{".com.mx", "MXN"},
	{".uk", "GBP"},
	{".de", "EUR"},
	{".fr", "EUR"},
	{".it", "EUR"},
	{".es", "EUR"},
	{".nl", "EUR"},
	{".ie", "EUR"},
	{".at", "EUR"},
	{".be", "EUR"},
	{".ca", "CAD"},
	{".au", "AUD"},
	{".jp", "JPY"},
	{".in", "INR"},
	{".br", "BRL"},
	{".mx", "MXN"},
	{".ch", "CHF"},
	{".se", "SEK"},
	{".no", "NOK"},
	{".dk", "DKK"},
	{".pl", "PLN"},
	{".cz", "CZK"},
	{".com", "USD"},
}

// detectCurrency resolves the ISO 4217 code for a price. Explicit codes
// in the raw price text win, then symbols, then the site's domain
// suffix. With no signal at all the currency stays unset rather than
// guessed.
func detectCurrency(rawPrice, pageURL string) string {
	if m := currencyCodeRe.FindString(rawPrice); m != "" {
		return strings.ToUpper(m)
	}
	for _, sc := range currencySymbols {
		if strings.Contains(rawPrice, sc.symbol) {
			return sc.code
		}
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, tc := range tldCurrencies {
		if strings.HasSuffix(host, tc.suffix) {
			return tc.code
		}
	}
	return ""
}
