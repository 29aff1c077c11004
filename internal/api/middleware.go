package api

import (
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/scrapiee/scrapiee/internal/models"
)

// Auth returns bearer-token middleware checking against the configured
// API key. An empty configured key means the operator forgot to set one;
// that is reported as a server problem, never an open door.
func Auth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				writeMiddlewareError(w, http.StatusInternalServerError, models.ErrCodeServerMisconfigured)
				return
			}

			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				writeMiddlewareError(w, http.StatusUnauthorized, models.ErrCodeUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces per-client token-bucket rate limits. Clients are
// identified by remote IP (RealIP middleware runs first, so this is the
// originating address behind proxies). Entries unused for an hour are
// evicted by a background sweeper that runs until Stop is called.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rps      float64
	burst    int
	done     chan struct{}
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rps:      rps,
		burst:    burst,
		done:     make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Stop terminates the background sweeper. The limiter itself keeps
// working; only eviction stops.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

// Middleware is the chi-compatible wrapper applying the limit.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// RealIP may leave RemoteAddr without a port; keep it as-is then.
		identity := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			identity = host
		}

		if !rl.limiterFor(identity).Allow() {
			writeMiddlewareError(w, http.StatusTooManyRequests, models.ErrCodeRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiterFor(identity string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[identity]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(rl.rps), rl.burst),
		}
		rl.limiters[identity] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-1 * time.Hour)
			rl.mu.Lock()
			for id, entry := range rl.limiters {
				if entry.lastSeen.Before(cutoff) {
					delete(rl.limiters, id)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func writeMiddlewareError(w http.ResponseWriter, status int, code models.ErrorCode) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&models.ScrapeResponse{ //nolint:errcheck
		Success: false,
		Error: &models.ErrorDetail{
			Code:    code,
			Message: code.Message(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().Unix()},
	})
}
