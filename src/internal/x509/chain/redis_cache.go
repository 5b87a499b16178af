// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a [ResponseCache] shared between processes through Redis.
// Entries are written with a TTL equal to the time left until expiry, so
// Redis drops them on its own.
type RedisCache struct {
	rdb     redis.Cmdable
	timeout time.Duration
	clk     clock.Clock
	latency *prometheus.HistogramVec
}

// MakeResponseKey generates the Redis key a response for key is stored under.
func MakeResponseKey(key string) string {
	return fmt.Sprintf("ocsp{%s}", key)
}

// NewRedisCache wraps rdb.
//
// Parameters:
//   - rdb: Redis client or cluster client
//   - timeout: Per-operation timeout; zero means the caller's context only
//   - clk: Time source; nil uses the wall clock
//   - stats: Registerer for the latency histogram; nil disables registration
//
// Returns:
//   - *RedisCache: Cache backed by rdb
func NewRedisCache(rdb redis.Cmdable, timeout time.Duration, clk clock.Clock, stats prometheus.Registerer) *RedisCache {
	if clk == nil {
		clk = clock.New()
	}
	latency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "tls_trust_response_cache_latency_seconds",
			Help: "Histogram of Redis response cache latencies with result and method labels",
		},
		[]string{"result", "method"},
	)
	if stats != nil {
		stats.MustRegister(latency)
	}
	return &RedisCache{rdb: rdb, timeout: timeout, clk: clk, latency: latency}
}

func (c *RedisCache) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Get implements [ResponseCache]. Redis errors are reported as misses.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	start := c.clk.Now()
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	data, err := c.rdb.Get(ctx, MakeResponseKey(key)).Bytes()
	result := "hit"
	switch {
	case errors.Is(err, redis.Nil):
		result = "miss"
	case err != nil:
		result = "error"
	}
	c.latency.With(prometheus.Labels{"result": result, "method": "get"}).Observe(c.clk.Now().Sub(start).Seconds())

	if err != nil {
		return nil, false
	}
	return data, true
}

// Put implements [ResponseCache]. Write failures are dropped; the next
// lookup simply queries the responder again.
func (c *RedisCache) Put(ctx context.Context, key string, data []byte, expiresAt time.Time) {
	ttl := expiresAt.Sub(c.clk.Now())
	if ttl <= 0 {
		return
	}

	start := c.clk.Now()
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	err := c.rdb.Set(ctx, MakeResponseKey(key), data, ttl).Err()
	result := "success"
	if err != nil {
		result = "error"
	}
	c.latency.With(prometheus.Labels{"result": result, "method": "put"}).Observe(c.clk.Now().Sub(start).Seconds())
}
