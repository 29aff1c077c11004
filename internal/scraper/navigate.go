package scraper

import (
	"log/slog"
	"time"

	"github.com/scrapiee/scrapiee/internal/models"
)

// navFunc performs one navigation attempt with the given wait strategy
// and per-attempt timeout.
type navFunc func(strategy models.WaitStrategy, timeout time.Duration) error

// fallbackPlan returns the requested strategy followed by the remaining
// strategies in fixed fallback order, without repeats.
func fallbackPlan(primary models.WaitStrategy) []models.WaitStrategy {
	plan := []models.WaitStrategy{primary}
	for _, s := range models.FallbackOrder {
		if s != primary {
			plan = append(plan, s)
		}
	}
	return plan
}

// navigateWithFallback drives navigation attempts across the fallback
// plan. The remaining budget is split equally across the strategies still
// untried, so total wall-clock time stays within approximately the
// original timeout instead of timeout × strategies.
//
// Hard network failures (DNS, connection refused) short-circuit the
// chain: a different wait condition cannot fix an unreachable host.
func navigateWithFallback(logger *slog.Logger, nav navFunc, primary models.WaitStrategy, budget time.Duration) (models.WaitStrategy, time.Duration, error) {
	plan := fallbackPlan(primary)
	start := time.Now()
	deadline := start.Add(budget)

	var lastErr error
	for i, strategy := range plan {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		attemptTimeout := remaining / time.Duration(len(plan)-i)

		err := nav(strategy, attemptTimeout)
		if err == nil {
			return strategy, time.Since(start), nil
		}
		lastErr = err

		code := classifyNavigationError(err)
		if isTerminalNavigationError(code) {
			return "", time.Since(start), models.NewScrapeError(code, err)
		}

		logger.Warn("navigation attempt failed, falling back",
			"strategy", strategy,
			"attempt_timeout_ms", attemptTimeout.Milliseconds(),
			"error", err)
	}

	code := classifyNavigationError(lastErr)
	return "", time.Since(start), models.NewScrapeError(code, lastErr)
}
