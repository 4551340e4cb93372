// Package geocode resolves free-text postal addresses into coordinates and
// administrative identifiers.
package geocode

import (
	"context"
	"fmt"
)

// Result is the resolved form of an address. It lives only for the duration
// of the lookup that produced it; nothing persists it.
type Result struct {
	Latitude    float64
	Longitude   float64
	CountryCode string
	PostalCode  string
}

// RegionKey returns the cache key identifying the geographic scope of this
// result. Weather is location-scoped, so the key carries no user identity.
func (r Result) RegionKey() string {
	return fmt.Sprintf("%s/%s", r.CountryCode, r.PostalCode)
}

// Geocoder abstracts an address resolution backend.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (Result, error)
}

// ResolutionError reports an address that could not be geocoded: ambiguous,
// unknown, or an upstream failure.
type ResolutionError struct {
	Address string
	Err     error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not resolve address %q: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("could not resolve address %q", e.Address)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
