// Package cache provides the time-bounded weather cache keyed by region.
// Entries are shared across users; weather at a postal code is the same for
// everyone asking.
package cache

import (
	"context"
	"time"

	"weather-lookup/internal/weather"
)

// Cache returns a live cached reading for key, or invokes compute, stores
// the result for ttl, and returns it. A failed compute caches nothing.
type Cache interface {
	FetchOrCompute(ctx context.Context, key string, ttl time.Duration, compute func() (weather.Reading, error)) (weather.Reading, error)
}
