package pipeline

import (
	"context"
	"log"
	"time"

	"weather-lookup/internal/cache"
	"weather-lookup/internal/geocode"
	"weather-lookup/internal/history"
	"weather-lookup/internal/weather"
)

// Refresh re-resolves every stored history row and updates its weather
// snapshot in place. It shares the region cache with the lookup path but
// always writes the row, skipping the dedup check.
type Refresh struct {
	geocoder geocode.Geocoder
	fetcher  Fetcher
	cache    cache.Cache
	store    history.Store
	cacheTTL time.Duration
}

func NewRefresh(geocoder geocode.Geocoder, fetcher Fetcher, c cache.Cache, store history.Store, cacheTTL time.Duration) *Refresh {
	return &Refresh{
		geocoder: geocoder,
		fetcher:  fetcher,
		cache:    c,
		store:    store,
		cacheTTL: cacheTTL,
	}
}

// Run processes all rows sequentially. Only temperature and description are
// rewritten; the remaining weather columns keep their stored values. The
// first row that fails aborts the run; the next scheduled run starts over.
func (r *Refresh) Run(ctx context.Context) error {
	rows, err := r.store.All(ctx)
	if err != nil {
		return err
	}

	for _, row := range rows {
		resolved, err := r.geocoder.Resolve(ctx, row.Town)
		if err != nil {
			return err
		}

		reading, err := r.cache.FetchOrCompute(ctx, resolved.RegionKey(), r.cacheTTL, func() (weather.Reading, error) {
			return r.fetcher.Fetch(ctx, resolved.Latitude, resolved.Longitude)
		})
		if err != nil {
			return err
		}

		if err := r.store.UpdateWeather(ctx, row.ID, reading.Temperature, reading.Description); err != nil {
			return err
		}
	}

	log.Printf("refresh: updated %d history rows", len(rows))
	return nil
}
