package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"provreg/internal/domain"
)

// DefaultMaxKeys bounds the in-memory limiter so a flood of distinct
// principals cannot grow the map without limit.
const DefaultMaxKeys = 10000

type memoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	buckets map[string]*window
	maxKeys int
}

type window struct {
	count int
	ends  time.Time
}

type MemoryLimiterConfig struct {
	Now     func() time.Time
	MaxKeys int
}

// NewMemoryLimiter returns a fixed-window limiter suitable for a single
// process. Multi-instance deployments should use the redis limiter so
// all instances share one counter per principal.
func NewMemoryLimiter(cfg MemoryLimiterConfig) domain.RateLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = DefaultMaxKeys
	}
	return &memoryLimiter{
		now:     cfg.Now,
		buckets: make(map[string]*window),
		maxKeys: cfg.MaxKeys,
	}
}

func (m *memoryLimiter) Allow(_ context.Context, key string, limit int, windowDur time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.buckets[key]
	if ok && now.After(bucket.ends) {
		delete(m.buckets, key)
		bucket = nil
		ok = false
	}
	if !ok {
		if len(m.buckets) >= m.maxKeys {
			m.evictExpired(now)
		}
		if len(m.buckets) >= m.maxKeys {
			return domain.RateLimitDecision{}, errors.New("rate limiter capacity exceeded")
		}
		bucket = &window{ends: now.Add(windowDur)}
		m.buckets[key] = bucket
	}

	if bucket.count < limit {
		bucket.count++
		return domain.RateLimitDecision{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - bucket.count,
			ResetAt:   bucket.ends,
		}, nil
	}

	return domain.RateLimitDecision{
		Allowed:   false,
		Limit:     limit,
		Remaining: 0,
		ResetAt:   bucket.ends,
	}, nil
}

func (m *memoryLimiter) evictExpired(now time.Time) {
	for key, bucket := range m.buckets {
		if now.After(bucket.ends) {
			delete(m.buckets, key)
		}
	}
}
