package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"golang.org/x/sync/semaphore"
)

// ErrBrowserUnavailable is returned when the browser cannot be (re)started
// within the configured number of attempts, or when the manager is shut
// down. Callers should retry after a short delay rather than hang.
var ErrBrowserUnavailable = errors.New("browser unavailable")

// failureThreshold is the number of consecutive page-creation failures
// after which the session is considered broken and torn down.
const failureThreshold = 3

// Status is a non-blocking snapshot of the manager state.
type Status struct {
	Alive         bool  `json:"alive"`
	ActiveLeases  int   `json:"active_leases"`
	MaxConcurrent int   `json:"max_concurrent"`
	Restarts      int   `json:"restarts_since_start"`
	PagesServed   int64 `json:"pages_served"`
}

// browserSession abstracts the owned browser so manager semantics can be
// tested without launching a real browser.
type browserSession interface {
	NewPage() (playwright.Page, error)
	Alive() bool
	Close() error
}

// Manager owns the single browser session and the bounded page-lease pool.
// All access to the raw browser handle goes through it; the session is
// recreated transparently when it is found dead on acquire.
type Manager struct {
	opts   *Options
	logger *slog.Logger
	sem    *semaphore.Weighted
	limit  int

	newSession func(*Options) (browserSession, error)

	// restartMu serializes session teardown and startup so concurrent
	// restarts collapse into one and no two sessions ever coexist.
	restartMu sync.Mutex

	mu           sync.Mutex
	sess         browserSession
	epoch        uint64
	activeLeases int
	restarts     int
	pagesServed  int64
	failures     int
	closed       bool
}

func NewManager(opts *Options, maxConcurrent int, logger *slog.Logger) *Manager {
	if opts == nil {
		opts = DefaultOptions()
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		opts:   opts,
		logger: logger.With("component", "browser"),
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		limit:  maxConcurrent,
		newSession: func(o *Options) (browserSession, error) {
			return newSession(o)
		},
	}
}

// PageLease is a scoped, exclusive checkout of one browser page. Release
// is idempotent and must be called on every exit path of the holder.
type PageLease struct {
	m    *Manager
	page playwright.Page
	once sync.Once
}

// Page returns the leased page handle.
func (l *PageLease) Page() playwright.Page {
	return l.page
}

// Release closes the page and frees the pool slot. Safe to call more than
// once; every call after the first is a no-op.
func (l *PageLease) Release() {
	l.once.Do(func() {
		if l.page != nil {
			if err := l.page.Close(); err != nil {
				l.m.logger.Debug("error closing page", "error", err)
			}
		}
		l.m.mu.Lock()
		if l.m.activeLeases > 0 {
			l.m.activeLeases--
		}
		l.m.mu.Unlock()
		l.m.sem.Release(1)
	})
}

// Acquire blocks until a pool slot is free, then returns a lease on a
// fresh page. A dead session is detected lazily here and replaced before
// the page is created. Fails with ErrBrowserUnavailable when the browser
// cannot be started.
func (m *Manager) Acquire(ctx context.Context) (*PageLease, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	sess, err := m.ensureSession()
	if err != nil {
		m.sem.Release(1)
		return nil, err
	}

	page, err := sess.NewPage()
	if err != nil {
		m.recordPageFailure(sess)
		m.sem.Release(1)
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	m.mu.Lock()
	m.activeLeases++
	m.pagesServed++
	m.failures = 0
	m.mu.Unlock()

	return &PageLease{m: m, page: page}, nil
}

// recordPageFailure counts consecutive page-creation failures and tears
// the session down once the threshold is hit, forcing a restart on the
// next acquire.
func (m *Manager) recordPageFailure(sess browserSession) {
	m.mu.Lock()
	m.failures++
	broken := m.failures >= failureThreshold && m.sess == sess
	m.mu.Unlock()

	if broken {
		m.logger.Warn("consecutive page failures exceeded threshold, tearing down session",
			"failures", failureThreshold)
		m.Restart()
	}
}

// ensureSession returns the live session, starting or replacing it if
// needed. Startup is serialized with restarts.
func (m *Manager) ensureSession() (browserSession, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrBrowserUnavailable
	}
	if m.sess != nil && m.sess.Alive() {
		sess := m.sess
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()

	m.restartMu.Lock()
	defer m.restartMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrBrowserUnavailable
	}
	// Another caller may have started the session while we waited.
	if m.sess != nil && m.sess.Alive() {
		sess := m.sess
		m.mu.Unlock()
		return sess, nil
	}
	dead := m.sess
	m.sess = nil
	m.mu.Unlock()

	if dead != nil {
		m.logger.Warn("browser session found dead, restarting")
		if err := dead.Close(); err != nil {
			m.logger.Debug("error closing dead session", "error", err)
		}
		m.mu.Lock()
		m.restarts++
		m.pagesServed = 0
		m.mu.Unlock()
	}

	return m.startSessionLocked()
}

// startSessionLocked launches a new session with bounded retries. Caller
// must hold restartMu.
func (m *Manager) startSessionLocked() (browserSession, error) {
	var sess browserSession
	var err error

	for attempt := 1; attempt <= m.opts.MaxStartRetries; attempt++ {
		sess, err = m.newSession(m.opts)
		if err == nil {
			break
		}
		m.logger.Error("browser start failed", "attempt", attempt, "error", err)
		if attempt < m.opts.MaxStartRetries {
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	m.mu.Lock()
	m.sess = sess
	m.epoch++
	m.mu.Unlock()

	m.logger.Info("browser session started")
	return sess, nil
}

// Restart tears down the current session, forcibly invalidating all
// outstanding leases, and starts a fresh one. Concurrent calls collapse:
// a call that finds the session already replaced returns immediately.
func (m *Manager) Restart() error {
	m.mu.Lock()
	entryEpoch := m.epoch
	m.mu.Unlock()

	m.restartMu.Lock()
	defer m.restartMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrBrowserUnavailable
	}
	if m.epoch != entryEpoch {
		// Someone else already restarted while we waited.
		m.mu.Unlock()
		return nil
	}
	sess := m.sess
	m.sess = nil
	m.restarts++
	m.pagesServed = 0
	m.failures = 0
	m.mu.Unlock()

	if sess != nil {
		if err := sess.Close(); err != nil {
			m.logger.Debug("error closing session during restart", "error", err)
		}
	}

	_, err := m.startSessionLocked()
	return err
}

// Warmup eagerly starts the browser so the first request does not pay the
// startup cost. Failure is not fatal; the session will be retried lazily.
func (m *Manager) Warmup() error {
	m.restartMu.Lock()
	defer m.restartMu.Unlock()

	m.mu.Lock()
	if m.closed || m.sess != nil {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	_, err := m.startSessionLocked()
	return err
}

// Status returns a non-blocking snapshot for the admin surface.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	alive := m.sess != nil && m.sess.Alive()
	return Status{
		Alive:         alive,
		ActiveLeases:  m.activeLeases,
		MaxConcurrent: m.limit,
		Restarts:      m.restarts,
		PagesServed:   m.pagesServed,
	}
}

// Close shuts the manager down permanently. Subsequent acquires fail with
// ErrBrowserUnavailable.
func (m *Manager) Close() error {
	m.restartMu.Lock()
	defer m.restartMu.Unlock()

	m.mu.Lock()
	m.closed = true
	sess := m.sess
	m.sess = nil
	m.mu.Unlock()

	if sess != nil {
		return sess.Close()
	}
	return nil
}
