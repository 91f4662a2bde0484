package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/sheet-inbox/internal/core"
	"go.uber.org/zap"
)

// MemoryCache is an in-memory implementation of core.SnapshotCache
type MemoryCache struct {
	entries map[string]*core.Snapshot
	mu      sync.RWMutex
	logger  *zap.Logger
	ttl     time.Duration
	janitor *janitor
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(logger *zap.Logger, ttl, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries: make(map[string]*core.Snapshot),
		logger:  logger,
		ttl:     ttl,
	}
	cache.janitor = startJanitor(logger, cleanupFreq, cache.Cleanup)
	return cache
}

// Get retrieves the snapshot for a source URL
func (c *MemoryCache) Get(_ context.Context, sourceURL string) (*core.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[sourceURL]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil, ErrExpired
	}

	out := *entry
	out.Body = append([]byte(nil), entry.Body...)
	return &out, nil
}

// Set stores a snapshot, stamping its expiry when unset
func (c *MemoryCache) Set(_ context.Context, snapshot *core.Snapshot) error {
	entry := *snapshot
	entry.Body = append([]byte(nil), snapshot.Body...)
	entry.FromCache = false
	if entry.ExpiresAt.IsZero() {
		entry.ExpiresAt = expiry(time.Now(), c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.SourceURL] = &entry
	return nil
}

// Delete removes a snapshot
func (c *MemoryCache) Delete(_ context.Context, sourceURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, sourceURL)
	return nil
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	c.janitor.stop()
}
