package models

import (
	"time"
)

// WaitStrategy is a named condition that determines when a navigation is
// considered complete.
type WaitStrategy string

const (
	WaitNetworkIdle      WaitStrategy = "networkidle"
	WaitLoad             WaitStrategy = "load"
	WaitDOMContentLoaded WaitStrategy = "domcontentloaded"
)

// FallbackOrder is the fixed order in which wait strategies are attempted
// when the requested one fails. Strategies already tried are skipped.
var FallbackOrder = []WaitStrategy{WaitNetworkIdle, WaitLoad, WaitDOMContentLoaded}

// IsValid reports whether s is one of the recognized wait strategies.
func (s WaitStrategy) IsValid() bool {
	switch s {
	case WaitNetworkIdle, WaitLoad, WaitDOMContentLoaded:
		return true
	}
	return false
}

// Timeout bounds for a ScrapeRequest, in line with the request contract.
const (
	MinTimeout = 1 * time.Second
	MaxTimeout = 60 * time.Second
)

// ScrapeRequest is a validated scrape request. Validation (URL
// well-formedness, timeout bounds, wait strategy membership) happens at the
// API boundary; the core assumes the record is well-formed. Immutable once
// constructed.
type ScrapeRequest struct {
	ID      string
	URL     string
	Timeout time.Duration
	WaitFor WaitStrategy
}

// FetchResult is the successful outcome of a navigation: the rendered HTML
// plus timing metadata and the wait strategy that ultimately succeeded.
type FetchResult struct {
	HTML           string
	NavigationTime time.Duration
	Strategy       WaitStrategy
}

// ProductRecord holds the extracted product fields. All fields except URL
// are optional; an empty string means the field could not be determined and
// is honestly reported as absent, never fabricated.
type ProductRecord struct {
	Title       string `json:"title,omitempty"`
	Price       string `json:"price,omitempty"`
	Currency    string `json:"currency,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	URL         string `json:"url"`
}

// IsEmpty reports whether no optional field was extracted at all.
func (p ProductRecord) IsEmpty() bool {
	return p.Title == "" && p.Price == "" && p.Currency == "" &&
		p.Description == "" && p.Image == ""
}

// Metadata describes how and when a response was produced.
type Metadata struct {
	Timestamp        int64  `json:"timestamp"`
	ProcessingTimeMs int64  `json:"processing_time"`
	ExtractionMethod string `json:"extraction_method,omitempty"`
	Cached           bool   `json:"cached,omitempty"`
}

// ScrapeResponse is the JSON envelope produced for the response layer.
// Exactly one of Data and Error is populated.
type ScrapeResponse struct {
	Success  bool           `json:"success"`
	Data     *ProductRecord `json:"data,omitempty"`
	Error    *ErrorDetail   `json:"error,omitempty"`
	Metadata Metadata       `json:"metadata"`
}

// ErrorDetail is the wire representation of a classified failure.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}
