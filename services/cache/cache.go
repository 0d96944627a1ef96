// Package cache provides the TTL key-value cache sitting in front of the
// market data providers. The cache is a pure performance layer: a miss is the
// normal path to a provider fetch, and the durable store stays the system of
// record.
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache is the contract the market data services depend on. Values are
// opaque JSON payloads; TTL is fixed per domain by the caller.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is the default in-process backend: a map guarded by a RWMutex
// with lazy expiry on read and a periodic purge.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates a memory cache and starts its purge loop.
func NewMemoryCache(purgeInterval time.Duration) *MemoryCache {
	if purgeInterval <= 0 {
		purgeInterval = time.Minute
	}
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}
	go c.purgeLoop(purgeInterval)
	return c
}

// Get returns the cached value for key, or false when absent or expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if e, still := c.entries[key]; still && time.Now().After(e.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.data, true
}

// Set stores value under key for ttl. Writes are last-writer-wins.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

// Close stops the purge loop.
func (c *MemoryCache) Close() {
	c.once.Do(func() {
		close(c.stop)
	})
}

func (c *MemoryCache) purgeLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
