// Package cache provides a small in-memory cache for scrape responses,
// so repeat lookups of the same product page skip the browser entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/scrapiee/scrapiee/internal/models"
)

type entry struct {
	response  *models.ScrapeResponse
	createdAt time.Time
}

// Cache is safe for concurrent use. Eviction is lazy on Get plus a
// periodic sweep; at capacity Set evicts one arbitrary entry.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	done       chan struct{}
}

// New creates a Cache holding at most maxEntries responses for ttl.
// A background sweeper evicts expired entries until Stop is called.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		done:       make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Key derives the cache key for a scrape request. Only the URL and wait
// strategy affect the rendered page, so only they shape the key.
func Key(url string, waitFor models.WaitStrategy) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte("|"))
	h.Write([]byte(waitFor))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response for key if present and unexpired.
func (c *Cache) Get(key string) (*models.ScrapeResponse, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > c.ttl {
		return nil, false
	}
	return e.response, true
}

// Set stores a response. Only successful responses are worth keeping;
// failures must retry the browser.
func (c *Cache) Set(key string, resp *models.ScrapeResponse) {
	if resp == nil || !resp.Success {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration order is random, so this evicts an arbitrary entry.
	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}
	c.store[key] = &entry{
		response:  resp,
		createdAt: time.Now(),
	}
}

// Len reports the current number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stop terminates the background sweeper.
func (c *Cache) Stop() {
	close(c.done)
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-c.ttl)
			c.mu.Lock()
			for k, e := range c.store {
				if e.createdAt.Before(cutoff) {
					delete(c.store, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
