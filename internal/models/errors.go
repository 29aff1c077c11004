package models

import (
	"errors"
	"fmt"
)

// ErrorCode classifies whole-request failures. Partial extraction misses are
// not errors; they surface as absent fields on a still-successful response.
type ErrorCode string

const (
	// ErrCodeInvalidURL marks a malformed URL rejected before navigation.
	ErrCodeInvalidURL ErrorCode = "INVALID_URL"
	// ErrCodeDNSError marks a name resolution failure during navigation.
	ErrCodeDNSError ErrorCode = "DNS_ERROR"
	// ErrCodeConnectionRefused marks a transport-level rejection.
	ErrCodeConnectionRefused ErrorCode = "CONNECTION_REFUSED"
	// ErrCodeTimeout marks exhaustion of all fallback wait strategies.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeBrowserError marks failure to produce a live page lease.
	// Retryable: a browser restart may already be underway.
	ErrCodeBrowserError ErrorCode = "BROWSER_ERROR"
	// ErrCodeScrapingFailed marks a navigation that succeeded but yielded
	// no usable product data, or any otherwise unclassified failure.
	ErrCodeScrapingFailed ErrorCode = "SCRAPING_FAILED"

	// API-boundary codes, never produced by the scraping core.
	ErrCodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeRateLimited         ErrorCode = "RATE_LIMITED"
	ErrCodeServerMisconfigured ErrorCode = "SERVER_MISCONFIGURATION"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeInvalidURL:        "The provided URL is not valid",
	ErrCodeDNSError:          "Could not resolve the domain name",
	ErrCodeConnectionRefused: "Connection to the server was refused",
	ErrCodeTimeout:           "Request timed out while loading the page",
	ErrCodeBrowserError:      "Browser service error",
	ErrCodeScrapingFailed:    "Failed to scrape the provided URL",

	ErrCodeInvalidRequest:      "The request body is not valid",
	ErrCodeUnauthorized:        "Missing or invalid API key",
	ErrCodeRateLimited:         "Rate limit exceeded, please slow down",
	ErrCodeServerMisconfigured: "Service is not configured correctly",
}

// Message returns the user-facing message for the code.
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "An unexpected error occurred"
}

// ScrapeError is a classified scraping failure. It wraps the underlying
// cause so callers can still inspect it with errors.Is/As.
type ScrapeError struct {
	Code ErrorCode
	Err  error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError wraps err with a taxonomy code.
func NewScrapeError(code ErrorCode, err error) *ScrapeError {
	return &ScrapeError{Code: code, Err: err}
}

// CodeOf extracts the taxonomy code from err, defaulting to
// SCRAPING_FAILED for unclassified failures.
func CodeOf(err error) ErrorCode {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeScrapingFailed
}

// DetailOf builds the wire representation for a classified failure.
func DetailOf(err error) *ErrorDetail {
	code := CodeOf(err)
	detail := &ErrorDetail{
		Code:    code,
		Message: code.Message(),
	}
	if err != nil {
		detail.Details = err.Error()
	}
	return detail
}
