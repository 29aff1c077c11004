package browser

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession satisfies browserSession without launching a real browser.
// NewPage returns a nil page, which the lease treats as already closed.
type fakeSession struct {
	mu      sync.Mutex
	alive   bool
	closed  bool
	pageErr error
	pages   int
}

func (f *fakeSession) NewPage() (playwright.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	f.pages++
	return nil, nil
}

func (f *fakeSession) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive && !f.closed
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestManager(t *testing.T, limit int, factory func(*Options) (browserSession, error)) *Manager {
	t.Helper()
	opts := DefaultOptions()
	opts.MaxStartRetries = 1
	m := NewManager(opts, limit, nil)
	m.newSession = factory
	return m
}

func TestAcquireRespectsConcurrencyCeiling(t *testing.T) {
	m := newTestManager(t, 2, func(*Options) (browserSession, error) {
		return &fakeSession{alive: true}, nil
	})

	ctx := context.Background()

	first, err := m.Acquire(ctx)
	require.NoError(t, err)
	second, err := m.Acquire(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, m.Status().ActiveLeases)

	// The third acquire must suspend until a slot frees, not succeed.
	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = m.Acquire(waitCtx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, m.Status().ActiveLeases)

	first.Release()
	assert.Equal(t, 1, m.Status().ActiveLeases)

	third, err := m.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Status().ActiveLeases)

	second.Release()
	third.Release()
	assert.Equal(t, 0, m.Status().ActiveLeases)
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := newTestManager(t, 1, func(*Options) (browserSession, error) {
		return &fakeSession{alive: true}, nil
	})

	lease, err := m.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, m.Status().ActiveLeases)

	lease.Release()
	lease.Release()
	lease.Release()

	assert.Equal(t, 0, m.Status().ActiveLeases)

	// The pool must not be over-released: exactly one slot available.
	again, err := m.Acquire(context.Background())
	require.NoError(t, err)
	defer again.Release()

	waitCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = m.Acquire(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAcquireFailsWhenBrowserCannotStart(t *testing.T) {
	boom := errors.New("chromium refused to launch")
	m := newTestManager(t, 2, func(*Options) (browserSession, error) {
		return nil, boom
	})

	_, err := m.Acquire(context.Background())
	require.ErrorIs(t, err, ErrBrowserUnavailable)

	// The slot must have been released; the next caller gets the same
	// error instead of hanging.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = m.Acquire(ctx)
	require.ErrorIs(t, err, ErrBrowserUnavailable)

	assert.Equal(t, 0, m.Status().ActiveLeases)
	assert.False(t, m.Status().Alive)
}

func TestDeadSessionReplacedOnAcquire(t *testing.T) {
	var created []*fakeSession
	m := newTestManager(t, 1, func(*Options) (browserSession, error) {
		s := &fakeSession{alive: true}
		created = append(created, s)
		return s, nil
	})

	lease, err := m.Acquire(context.Background())
	require.NoError(t, err)
	lease.Release()
	require.Len(t, created, 1)

	// Simulate a browser crash between requests.
	created[0].mu.Lock()
	created[0].alive = false
	created[0].mu.Unlock()

	lease, err = m.Acquire(context.Background())
	require.NoError(t, err)
	lease.Release()

	assert.Len(t, created, 2)
	assert.True(t, created[0].closed, "dead session must be closed")
	assert.Equal(t, 1, m.Status().Restarts)
	assert.True(t, m.Status().Alive)
}

func TestRestartCollapsesAndCounts(t *testing.T) {
	var created int
	m := newTestManager(t, 1, func(*Options) (browserSession, error) {
		created++
		return &fakeSession{alive: true}, nil
	})

	require.NoError(t, m.Warmup())
	require.Equal(t, 1, created)

	require.NoError(t, m.Restart())
	require.NoError(t, m.Restart())

	assert.Equal(t, 2, m.Status().Restarts)
	assert.Equal(t, 3, created)
	assert.True(t, m.Status().Alive)
}

func TestConsecutivePageFailuresTearDownSession(t *testing.T) {
	var created []*fakeSession
	m := newTestManager(t, 1, func(*Options) (browserSession, error) {
		s := &fakeSession{alive: true, pageErr: errors.New("target closed")}
		created = append(created, s)
		return s, nil
	})

	for i := 0; i < failureThreshold; i++ {
		_, err := m.Acquire(context.Background())
		require.ErrorIs(t, err, ErrBrowserUnavailable)
	}

	// The broken session was replaced after the threshold was hit.
	require.GreaterOrEqual(t, len(created), 2)
	assert.True(t, created[0].closed)
}

func TestAcquireAfterCloseFails(t *testing.T) {
	m := newTestManager(t, 1, func(*Options) (browserSession, error) {
		return &fakeSession{alive: true}, nil
	})

	require.NoError(t, m.Warmup())
	require.NoError(t, m.Close())

	_, err := m.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrBrowserUnavailable)
}
