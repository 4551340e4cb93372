// Package pipeline orchestrates the lookup flow (geocode, cached weather
// fetch, history persistence) and its background refresh twin.
package pipeline

import (
	"context"
	"time"

	"weather-lookup/internal/cache"
	"weather-lookup/internal/geocode"
	"weather-lookup/internal/history"
	"weather-lookup/internal/weather"
)

// Fetcher is the weather-provider contract the pipelines depend on.
type Fetcher interface {
	Fetch(ctx context.Context, latitude, longitude float64) (weather.Reading, error)
}

// Lookup runs one address lookup for one user.
type Lookup struct {
	geocoder geocode.Geocoder
	fetcher  Fetcher
	cache    cache.Cache
	store    history.Store
	cacheTTL time.Duration
}

func NewLookup(geocoder geocode.Geocoder, fetcher Fetcher, c cache.Cache, store history.Store, cacheTTL time.Duration) *Lookup {
	return &Lookup{
		geocoder: geocoder,
		fetcher:  fetcher,
		cache:    c,
		store:    store,
		cacheTTL: cacheTTL,
	}
}

// Execute resolves the address, returns current weather for it (from cache
// when fresh), and records the lookup in the user's history unless a row for
// that postal code already exists.
//
// When weather was fetched but persisting the history row failed, the
// reading is returned alongside the error so callers can still display it.
// The existence check is a plain lookup, not a transactional guard;
// concurrent identical requests may race to insert, and the unique index on
// (user_id, postal_code) is the backstop.
func (l *Lookup) Execute(ctx context.Context, userID, address string) (*weather.Reading, error) {
	resolved, err := l.geocoder.Resolve(ctx, address)
	if err != nil {
		return nil, err
	}

	reading, err := l.cache.FetchOrCompute(ctx, resolved.RegionKey(), l.cacheTTL, func() (weather.Reading, error) {
		return l.fetcher.Fetch(ctx, resolved.Latitude, resolved.Longitude)
	})
	if err != nil {
		return nil, err
	}

	existing, err := l.store.FindByUserAndPostalCode(ctx, userID, resolved.PostalCode)
	if err != nil {
		return &reading, err
	}
	if existing == nil {
		// The town column records the address exactly as the user typed it;
		// the refresh job re-geocodes from this text.
		row := history.NewSearchHistory(userID, resolved.PostalCode, address, reading)
		if err := l.store.Create(ctx, row); err != nil {
			return &reading, err
		}
	}

	return &reading, nil
}
