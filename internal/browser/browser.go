package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Options configures the owned browser process and every page created
// from it. The resource-blocking policy is fixed at page creation and is
// deliberately not configurable per request.
type Options struct {
	Headless        bool
	DefaultTimeout  time.Duration
	UserAgent       string
	ViewportWidth   int
	ViewportHeight  int
	AcceptLanguage  string
	TimezoneID      string
	Locale          string
	BlockResources  bool
	MaxStartRetries int
}

func DefaultOptions() *Options {
	return &Options{
		Headless:        true,
		DefaultTimeout:  30 * time.Second,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:   1366,
		ViewportHeight:  768,
		AcceptLanguage:  "en-GB,en;q=0.9",
		TimezoneID:      "Europe/London",
		Locale:          "en-GB",
		BlockResources:  true,
		MaxStartRetries: 2,
	}
}

// blockedResourceTypes are aborted at the routing layer to cut page load
// time. Product data lives in the DOM, not in these resources.
var blockedResourceTypes = map[string]bool{
	"image":      true,
	"stylesheet": true,
	"font":       true,
}

// session owns exactly one playwright process, browser and context. It is
// created and destroyed only by the Manager.
type session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	opts    *Options
	created time.Time
}

func newSession(opts *Options) (*session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-setuid-sandbox",
		},
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		UserAgent:       &opts.UserAgent,
		AcceptDownloads: playwright.Bool(false),
		Locale:          &opts.Locale,
		TimezoneId:      &opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		ExtraHttpHeaders: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": opts.AcceptLanguage,
		},
	}

	context, err := browser.NewContext(contextOpts)
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &session{
		pw:      pw,
		browser: browser,
		context: context,
		opts:    opts,
		created: time.Now(),
	}, nil
}

// NewPage creates an isolated page within the shared context and attaches
// the fixed resource-blocking policy.
func (s *session) NewPage() (playwright.Page, error) {
	page, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	page.SetDefaultTimeout(float64(s.opts.DefaultTimeout.Milliseconds()))

	if s.opts.BlockResources {
		err := page.Route("**/*", func(route playwright.Route) {
			if blockedResourceTypes[route.Request().ResourceType()] {
				route.Abort()
				return
			}
			route.Continue()
		})
		if err != nil {
			page.Close()
			return nil, fmt.Errorf("failed to install resource blocking: %w", err)
		}
	}

	return page, nil
}

// Alive reports whether the underlying browser process is still connected.
func (s *session) Alive() bool {
	return s.browser != nil && s.browser.IsConnected()
}

func (s *session) Close() error {
	var errs []error

	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}
