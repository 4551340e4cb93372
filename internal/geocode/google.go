package geocode

import (
	"context"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// GoogleGeocoder resolves addresses through the Google Geocoding API via
// kelvins/geocoder. Selected when a Google API key is configured.
//
// The library keys the whole process to one API key, so constructing this
// geocoder sets it globally.
type GoogleGeocoder struct{}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{}
}

func (g *GoogleGeocoder) Resolve(ctx context.Context, address string) (Result, error) {
	location, err := geocoder.Geocoding(geocoder.Address{Street: address})
	if err != nil {
		return Result{}, &ResolutionError{Address: address, Err: err}
	}

	// Forward geocoding only yields coordinates; the postal code and country
	// come from reverse-geocoding them back.
	addresses, err := geocoder.GeocodingReverse(location)
	if err != nil {
		return Result{}, &ResolutionError{Address: address, Err: err}
	}

	for _, a := range addresses {
		if a.PostalCode == "" || a.Country == "" {
			continue
		}
		return Result{
			Latitude:    location.Latitude,
			Longitude:   location.Longitude,
			CountryCode: countryCode(a.Country),
			PostalCode:  a.PostalCode,
		}, nil
	}

	return Result{}, &ResolutionError{Address: address}
}

// countryCode normalizes a country component to its ISO 3166-1 alpha-2 code
// so region keys have the same shape regardless of geocoding backend. Google
// reverse geocoding returns the English country name; values that cannot be
// mapped pass through unchanged.
func countryCode(country string) string {
	country = strings.TrimSpace(country)
	if len(country) == 2 {
		return strings.ToUpper(country)
	}
	if code, ok := countryCodesByName()[strings.ToLower(country)]; ok {
		return code
	}
	return country
}

var (
	countryCodesOnce sync.Once
	countryCodes     map[string]string
)

// countryCodesByName builds the English-name-to-code table once, by walking
// the two-letter region space and asking the CLDR data for each display name.
func countryCodesByName() map[string]string {
	countryCodesOnce.Do(func() {
		countryCodes = make(map[string]string)
		namer := display.English.Regions()
		for a := 'A'; a <= 'Z'; a++ {
			for b := 'A'; b <= 'Z'; b++ {
				region, err := language.ParseRegion(string([]rune{a, b}))
				if err != nil || !region.IsCountry() {
					continue
				}
				countryCodes[strings.ToLower(namer.Name(region))] = region.String()
			}
		}
	})
	return countryCodes
}
