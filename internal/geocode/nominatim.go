package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"weather-lookup/internal/httpx"
)

// NominatimGeocoder resolves addresses against the OpenStreetMap Nominatim
// search API. It needs no API key and returns ISO country codes directly.
type NominatimGeocoder struct {
	baseURL string
	opts    httpx.Options
	circuit *gobreaker.CircuitBreaker
}

func NewNominatimGeocoder(client *http.Client) *NominatimGeocoder {
	return &NominatimGeocoder{
		baseURL: "https://nominatim.openstreetmap.org/search",
		opts: httpx.Options{
			Client: client,
			// Geocode calls are not retried; a failed resolve surfaces
			// immediately as a ResolutionError.
			MaxRetries: 0,
		},
		circuit: httpx.NewBreaker("nominatim"),
	}
}

func (g *NominatimGeocoder) Resolve(ctx context.Context, address string) (Result, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", address)
		values.Set("format", "jsonv2")
		values.Set("addressdetails", "1")
		values.Set("limit", "1")

		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", g.baseURL, values.Encode()), nil)
		if err != nil {
			return nil, err
		}
		// Nominatim's usage policy requires an identifying agent.
		req.Header.Set("User-Agent", "weather-lookup")
		return req, nil
	}

	resp, err := httpx.Do(ctx, g.opts, g.circuit, buildRequest)
	if err != nil {
		return Result{}, &ResolutionError{Address: address, Err: err}
	}
	defer resp.Body.Close()

	var payload []struct {
		Lat     string `json:"lat"`
		Lon     string `json:"lon"`
		Address struct {
			Postcode    string `json:"postcode"`
			CountryCode string `json:"country_code"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, &ResolutionError{Address: address, Err: err}
	}
	if len(payload) == 0 {
		return Result{}, &ResolutionError{Address: address}
	}

	hit := payload[0]
	lat, err := strconv.ParseFloat(hit.Lat, 64)
	if err != nil {
		return Result{}, &ResolutionError{Address: address, Err: err}
	}
	lon, err := strconv.ParseFloat(hit.Lon, 64)
	if err != nil {
		return Result{}, &ResolutionError{Address: address, Err: err}
	}

	return Result{
		Latitude:    lat,
		Longitude:   lon,
		CountryCode: strings.ToUpper(hit.Address.CountryCode),
		PostalCode:  hit.Address.Postcode,
	}, nil
}
