package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrapiee/scrapiee/internal/browser"
	"github.com/scrapiee/scrapiee/internal/extractor"
	"github.com/scrapiee/scrapiee/internal/models"
)

type fakeLease struct {
	releases int
	events   *[]string
}

func (l *fakeLease) Page() playwright.Page { return nil }

func (l *fakeLease) Release() {
	l.releases++
	if l.events != nil {
		*l.events = append(*l.events, "release")
	}
}

type fakePool struct {
	lease      *fakeLease
	acquireErr error
	acquires   int
}

func (p *fakePool) Acquire(_ context.Context) (Lease, error) {
	p.acquires++
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	return p.lease, nil
}

func newTestService(pool Pool) *Service {
	return &Service{
		pool:      pool,
		extractor: extractor.New(),
		logger:    discardLogger(),
		goTo: func(playwright.Page, string, models.WaitStrategy, time.Duration) error {
			return nil
		},
		pageHTML: func(playwright.Page) (string, error) {
			return "<html></html>", nil
		},
	}
}

func testRequest() models.ScrapeRequest {
	return models.ScrapeRequest{
		ID:      "req-1",
		URL:     "https://example.com/p",
		Timeout: 5 * time.Second,
		WaitFor: models.WaitNetworkIdle,
	}
}

func TestFetchReleasesLeaseOnNavigationFailure(t *testing.T) {
	lease := &fakeLease{}
	pool := &fakePool{lease: lease}

	s := newTestService(pool)
	s.goTo = func(playwright.Page, string, models.WaitStrategy, time.Duration) error {
		return errors.New("Timeout 5000ms exceeded")
	}

	_, err := s.Fetch(context.Background(), testRequest())
	require.Error(t, err)

	assert.Equal(t, models.ErrCodeTimeout, models.CodeOf(err))
	assert.Equal(t, 1, lease.releases, "lease must be released on the error path")
}

func TestFetchReleasesLeaseWhenCaptureFails(t *testing.T) {
	lease := &fakeLease{}
	pool := &fakePool{lease: lease}

	s := newTestService(pool)
	s.pageHTML = func(playwright.Page) (string, error) {
		return "", errors.New("Target page, context or browser has been closed")
	}

	_, err := s.Fetch(context.Background(), testRequest())
	require.Error(t, err)

	assert.Equal(t, models.ErrCodeBrowserError, models.CodeOf(err))
	assert.Equal(t, 1, lease.releases)
}

func TestFetchCapturesContentBeforeRelease(t *testing.T) {
	var events []string
	lease := &fakeLease{events: &events}
	pool := &fakePool{lease: lease}

	s := newTestService(pool)
	s.goTo = func(_ playwright.Page, _ string, _ models.WaitStrategy, _ time.Duration) error {
		events = append(events, "goto")
		return nil
	}
	s.pageHTML = func(playwright.Page) (string, error) {
		events = append(events, "content")
		return "<html><body>ok</body></html>", nil
	}

	result, err := s.Fetch(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"goto", "content", "release"}, events,
		"the HTML snapshot must be taken before the lease is released")
	assert.Equal(t, "<html><body>ok</body></html>", result.HTML)
	assert.Equal(t, models.WaitNetworkIdle, result.Strategy)
	assert.Equal(t, 1, lease.releases)
}

func TestFetchInvalidURLSkipsPool(t *testing.T) {
	pool := &fakePool{lease: &fakeLease{}}
	s := newTestService(pool)

	req := testRequest()
	req.URL = "ftp://example.com"

	_, err := s.Fetch(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, models.ErrCodeInvalidURL, models.CodeOf(err))
	assert.Zero(t, pool.acquires, "invalid URLs are rejected before a lease is acquired")
}

func TestFetchBrowserUnavailable(t *testing.T) {
	pool := &fakePool{acquireErr: browser.ErrBrowserUnavailable}
	s := newTestService(pool)

	_, err := s.Fetch(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeBrowserError, models.CodeOf(err))
}

func TestFetchBrowserTornDownMidNavigation(t *testing.T) {
	lease := &fakeLease{}
	pool := &fakePool{lease: lease}

	var attempts int
	s := newTestService(pool)
	s.goTo = func(playwright.Page, string, models.WaitStrategy, time.Duration) error {
		attempts++
		return errors.New("Target page, context or browser has been closed")
	}

	_, err := s.Fetch(context.Background(), testRequest())
	require.Error(t, err)

	assert.Equal(t, models.ErrCodeBrowserError, models.CodeOf(err))
	assert.Equal(t, 1, attempts, "a dead page must not be re-driven through the fallback chain")
	assert.Equal(t, 1, lease.releases)
}
