package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"weather-lookup/internal/weather"
)

// RedisCache stores JSON-encoded readings in Redis with a per-key TTL, so
// the freshness window survives process restarts and is shared between the
// request path and the refresh job across instances.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) FetchOrCompute(ctx context.Context, key string, ttl time.Duration, compute func() (weather.Reading, error)) (weather.Reading, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var reading weather.Reading
		if unmarshalErr := json.Unmarshal([]byte(data), &reading); unmarshalErr == nil {
			return reading, nil
		}
		// Undecodable entry: fall through and recompute over it.
		log.Printf("cache: discarding undecodable entry for %s", key)
	} else if !errors.Is(err, redis.Nil) {
		// A degraded cache backend must not fail lookups; treat as a miss.
		log.Printf("cache: redis get failed for %s: %v", key, err)
	}

	reading, err := compute()
	if err != nil {
		return weather.Reading{}, err
	}

	encoded, err := json.Marshal(reading)
	if err != nil {
		return weather.Reading{}, err
	}
	if err := c.client.Set(ctx, key, encoded, ttl).Err(); err != nil {
		log.Printf("cache: redis set failed for %s: %v", key, err)
	}

	return reading, nil
}
