package cache

import (
	"context"
	"sync"
	"time"

	"weather-lookup/internal/weather"
)

type entry struct {
	reading   weather.Reading
	expiresAt time.Time
}

// MemoryCache is a concurrency-safe in-memory Cache. Expired entries are
// treated as misses and overwritten on the next compute; there is no
// background eviction.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string]entry

	now func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

func (c *MemoryCache) FetchOrCompute(ctx context.Context, key string, ttl time.Duration, compute func() (weather.Reading, error)) (weather.Reading, error) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	if ok && c.now().Before(e.expiresAt) {
		return e.reading, nil
	}

	reading, err := compute()
	if err != nil {
		return weather.Reading{}, err
	}

	c.mu.Lock()
	c.data[key] = entry{reading: reading, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()

	return reading, nil
}
