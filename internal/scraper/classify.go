package scraper

import (
	"strings"

	"github.com/scrapiee/scrapiee/internal/models"
)

// classifyNavigationError maps a raw navigation error onto the failure
// taxonomy by inspecting the underlying Chromium error string.
func classifyNavigationError(err error) models.ErrorCode {
	if err == nil {
		return models.ErrCodeScrapingFailed
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "err_name_not_resolved"),
		strings.Contains(msg, "name not resolved"),
		strings.Contains(msg, "name resolution"),
		strings.Contains(msg, "dns"):
		return models.ErrCodeDNSError
	case strings.Contains(msg, "err_connection_refused"),
		strings.Contains(msg, "connection refused"):
		return models.ErrCodeConnectionRefused
	case strings.Contains(msg, "err_invalid_url"),
		strings.Contains(msg, "invalid url"):
		return models.ErrCodeInvalidURL
	case strings.Contains(msg, "target closed"),
		strings.Contains(msg, "has been closed"):
		// The page or browser died under us, typically a restart
		// collapsing in-flight leases. Retryable once the pool recovers.
		return models.ErrCodeBrowserError
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"):
		return models.ErrCodeTimeout
	default:
		return models.ErrCodeScrapingFailed
	}
}

// isTerminalNavigationError reports whether the failure makes further
// fallback attempts pointless. A dead page is terminal too: re-driving
// it with a different wait condition cannot bring it back.
func isTerminalNavigationError(code models.ErrorCode) bool {
	switch code {
	case models.ErrCodeDNSError, models.ErrCodeConnectionRefused,
		models.ErrCodeInvalidURL, models.ErrCodeBrowserError:
		return true
	}
	return false
}
