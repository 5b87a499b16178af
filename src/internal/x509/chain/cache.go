// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"sync"
	"time"

	"github.com/jmhodges/clock"
)

// ResponseCache stores revocation responses until their expiry.
// Implementations must be safe for concurrent use.
type ResponseCache interface {
	// Get returns a cached, unexpired response.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Put stores data until expiresAt. Entries already expired are ignored.
	Put(ctx context.Context, key string, data []byte, expiresAt time.Time)
}

// CacheEntry represents a cached response with metadata.
type CacheEntry struct {
	Data      []byte    // Raw response
	StoredAt  time.Time // When the entry was stored
	ExpiresAt time.Time // Responder's NextUpdate
}

// CacheConfig holds configuration for [MemoryCache].
type CacheConfig struct {
	MaxSize int // Maximum number of entries (0 = unlimited, not recommended)
}

// CacheMetrics tracks cache performance and usage.
type CacheMetrics struct {
	Size        int64 // Current number of entries
	Hits        int64 // Number of cache hits
	Misses      int64 // Number of cache misses
	Evictions   int64 // Number of LRU evictions
	Expirations int64 // Number of entries dropped because they expired
	TotalMemory int64 // Approximate memory usage in bytes
}

// DefaultCacheConfig is used when NewMemoryCache receives a zero config.
var DefaultCacheConfig = CacheConfig{MaxSize: 1024}

// MemoryCache is an in-process LRU [ResponseCache].
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
	order   []string // access order, least recently used first
	cfg     CacheConfig
	metrics CacheMetrics
	clk     clock.Clock
}

// NewMemoryCache creates an LRU cache.
//
// Parameters:
//   - cfg: Size limit; a zero MaxSize selects [DefaultCacheConfig]
//   - clk: Time source; nil uses the wall clock
//
// Returns:
//   - *MemoryCache: Empty cache
func NewMemoryCache(cfg CacheConfig, clk clock.Clock) *MemoryCache {
	if cfg.MaxSize == 0 {
		cfg = DefaultCacheConfig
	}
	if cfg.MaxSize < 0 {
		cfg.MaxSize = 0
	}
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryCache{
		entries: make(map[string]*CacheEntry),
		cfg:     cfg,
		clk:     clk,
	}
}

// Get implements [ResponseCache]. Expired entries are removed on access.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.metrics.Misses++
		return nil, false
	}
	if !c.clk.Now().Before(entry.ExpiresAt) {
		c.removeLocked(key)
		c.metrics.Expirations++
		c.metrics.Misses++
		return nil, false
	}

	c.touchLocked(key)
	c.metrics.Hits++
	return entry.Data, true
}

// Put implements [ResponseCache].
func (c *MemoryCache) Put(_ context.Context, key string, data []byte, expiresAt time.Time) {
	now := c.clk.Now()
	if !now.Before(expiresAt) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.removeLocked(key)
	}
	c.entries[key] = &CacheEntry{
		Data:      append([]byte(nil), data...),
		StoredAt:  now,
		ExpiresAt: expiresAt,
	}
	c.order = append(c.order, key)

	for c.cfg.MaxSize > 0 && len(c.entries) > c.cfg.MaxSize && len(c.order) > 0 {
		lru := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, lru)
		c.metrics.Evictions++
	}
}

// Cleanup drops every expired entry and returns how many were removed.
func (c *MemoryCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.Now()
	var expired []string
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.removeLocked(key)
	}
	c.metrics.Expirations += int64(len(expired))
	return len(expired)
}

// Metrics returns a snapshot of cache metrics.
func (c *MemoryCache) Metrics() CacheMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	var totalMemory int64
	for key, entry := range c.entries {
		totalMemory += int64(len(entry.Data)) + int64(len(key)) + 48
	}

	m := c.metrics
	m.Size = int64(len(c.entries))
	m.TotalMemory = totalMemory
	return m
}

func (c *MemoryCache) touchLocked(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, key)
}

func (c *MemoryCache) removeLocked(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
