package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/scrapiee/scrapiee/internal/browser"
	"github.com/scrapiee/scrapiee/internal/extractor"
	"github.com/scrapiee/scrapiee/internal/models"
)

// Lease is one leased page. Release is idempotent and must be called on
// every path once acquired.
type Lease interface {
	Page() playwright.Page
	Release()
}

// Pool hands out page leases, blocking while the pool is saturated.
type Pool interface {
	Acquire(ctx context.Context) (Lease, error)
}

// managerPool adapts the browser manager's concrete lease type to the
// Pool interface.
type managerPool struct {
	m *browser.Manager
}

func (p managerPool) Acquire(ctx context.Context) (Lease, error) {
	lease, err := p.m.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return lease, nil
}

// Service coordinates one scrape: it leases a page from the browser
// manager, drives navigation with fallback wait strategies, snapshots the
// rendered HTML and hands it to the extraction engine. One call, one
// attempt; retry policy belongs to the caller.
type Service struct {
	pool      Pool
	extractor *extractor.Extractor
	logger    *slog.Logger

	// Page operations, overridable in tests.
	goTo     func(page playwright.Page, url string, strategy models.WaitStrategy, timeout time.Duration) error
	pageHTML func(page playwright.Page) (string, error)
}

func NewService(pool *browser.Manager, ext *extractor.Extractor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pool:      managerPool{m: pool},
		extractor: ext,
		logger:    logger.With("component", "scraper"),
		goTo:      gotoPage,
		pageHTML:  pageContent,
	}
}

func gotoPage(page playwright.Page, url string, strategy models.WaitStrategy, timeout time.Duration) error {
	waitUntil := playwright.WaitUntilState(string(strategy))
	_, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func pageContent(page playwright.Page) (string, error) {
	return page.Content()
}

// Scrape fetches the page and extracts product data, producing the full
// response envelope. Navigation failures yield a classified error
// envelope; extraction never fails, it only yields sparser data.
func (s *Service) Scrape(ctx context.Context, req models.ScrapeRequest) *models.ScrapeResponse {
	start := time.Now()

	result, err := s.Fetch(ctx, req)
	if err != nil {
		s.logger.Warn("scrape failed", "request_id", req.ID, "url", req.URL, "error", err)
		return &models.ScrapeResponse{
			Success: false,
			Error:   models.DetailOf(err),
			Metadata: models.Metadata{
				Timestamp:        time.Now().Unix(),
				ProcessingTimeMs: time.Since(start).Milliseconds(),
			},
		}
	}

	record := s.extractor.Extract(result.HTML, req.URL)

	s.logger.Info("scrape succeeded",
		"request_id", req.ID,
		"url", req.URL,
		"strategy", result.Strategy,
		"navigation_ms", result.NavigationTime.Milliseconds(),
		"has_title", record.Title != "",
		"has_price", record.Price != "",
	)

	return &models.ScrapeResponse{
		Success: true,
		Data:    &record,
		Metadata: models.Metadata{
			Timestamp:        time.Now().Unix(),
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			ExtractionMethod: extractor.Method,
		},
	}
}

// Fetch navigates to the requested URL and returns the rendered HTML with
// timing metadata. All failures come back as *models.ScrapeError. The page
// lease is released on every exit path; the HTML snapshot is taken before
// release.
func (s *Service) Fetch(ctx context.Context, req models.ScrapeRequest) (*models.FetchResult, error) {
	if err := validateURL(req.URL); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidURL, err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = models.MaxTimeout / 2
	}

	lease, err := s.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, browser.ErrBrowserUnavailable) {
			return nil, models.NewScrapeError(models.ErrCodeBrowserError, err)
		}
		return nil, models.NewScrapeError(models.ErrCodeScrapingFailed, err)
	}
	defer lease.Release()

	page := lease.Page()
	nav := func(strategy models.WaitStrategy, attemptTimeout time.Duration) error {
		return s.goTo(page, req.URL, strategy, attemptTimeout)
	}

	strategy, elapsed, err := navigateWithFallback(s.logger, nav, req.WaitFor, timeout)
	if err != nil {
		return nil, err
	}

	// Capture the snapshot before the deferred release tears the page down.
	html, err := s.pageHTML(page)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserError,
			fmt.Errorf("failed to capture page content: %w", err))
	}

	return &models.FetchResult{
		HTML:           html,
		NavigationTime: elapsed,
		Strategy:       strategy,
	}, nil
}

// validateURL rejects URLs that cannot possibly navigate, before a lease
// is ever acquired.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url: missing host")
	}
	return nil
}
