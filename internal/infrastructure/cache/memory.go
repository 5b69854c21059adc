// Package cache holds model predictions keyed by image digest.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aims/backend/internal/domain"
)

const (
	// DefaultCleanupInterval is how often expired predictions are swept
	DefaultCleanupInterval = 10 * time.Minute
	// DefaultMaxEntries bounds memory when uploads are all distinct
	DefaultMaxEntries = 1000
)

type entry struct {
	payload   json.RawMessage
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Options configures a MemoryCache
type Options struct {
	CleanupInterval time.Duration
	MaxEntries      int
}

// MemoryCache stores predictions as encoded JSON with a per-entry TTL.
// Get returns a json.RawMessage; callers decode it into their own types.
// When full, the entry closest to expiry is evicted to make room.
type MemoryCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	maxEntries int

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryCache starts a cache and its janitor. Zero options take the defaults.
func NewMemoryCache(opts Options) *MemoryCache {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}

	c := &MemoryCache{
		entries:    make(map[string]entry),
		maxEntries: opts.MaxEntries,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go c.janitor(opts.CleanupInterval)

	return c
}

// Get returns the cached payload for key, or ErrCacheMiss
func (c *MemoryCache) Get(ctx context.Context, key string) (interface{}, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}
	return e.payload, nil
}

// Set encodes value and stores it for ttl
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}

	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, replacing := c.entries[key]; !replacing && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = entry{payload: payload, expiresAt: now.Add(ttl)}

	return nil
}

// Delete removes key; deleting a missing key is not an error
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Exists reports whether key holds an unexpired entry
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	return ok && !e.expired(time.Now()), nil
}

// Len counts stored entries, expired ones included until the next sweep
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Flush drops every entry
func (c *MemoryCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Close stops the janitor. Safe to call more than once.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
	return nil
}

// evictLocked drops expired entries, or failing that the one expiring soonest
func (c *MemoryCache) evictLocked(now time.Time) {
	if c.sweepLocked(now) > 0 {
		return
	}

	var victim string
	var soonest time.Time
	for key, e := range c.entries {
		if victim == "" || e.expiresAt.Before(soonest) {
			victim, soonest = key, e.expiresAt
		}
	}
	delete(c.entries, victim)
}

func (c *MemoryCache) sweepLocked(now time.Time) int {
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *MemoryCache) janitor(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			c.sweepLocked(now)
			c.mu.Unlock()
		}
	}
}
