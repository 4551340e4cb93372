package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"weather-lookup/internal/httpx"
)

// Client calls the OpenWeatherMap current-weather endpoint.
type Client struct {
	apiKey  string
	baseURL string
	opts    httpx.Options
	circuit *gobreaker.CircuitBreaker
}

func NewClient(httpClient *http.Client, apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		opts: httpx.Options{
			Client: httpClient,
			// One automatic retry on transient transport failure, no more.
			MaxRetries:     1,
			InitialBackoff: 500 * time.Millisecond,
		},
		circuit: httpx.NewBreaker("openweather"),
	}
}

// Fetch returns current conditions at the given coordinates in metric units.
// A response missing any required field fails with MalformedResponseError
// naming the first field found absent.
func (c *Client) Fetch(ctx context.Context, latitude, longitude float64) (Reading, error) {
	if c.apiKey == "" {
		return Reading{}, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("appid", c.apiKey)
		values.Set("lat", fmt.Sprintf("%f", latitude))
		values.Set("lon", fmt.Sprintf("%f", longitude))
		values.Set("units", "metric")

		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	}

	started := time.Now()
	resp, err := httpx.Do(ctx, c.opts, c.circuit, buildRequest)
	if err != nil {
		return Reading{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Reading{}, err
	}
	log.Printf("openweather: current weather call took %s", time.Since(started))

	return parseCurrentWeather(body)
}

// parseCurrentWeather validates the provider payload field by field, failing
// on the first required field that is absent. Humidity and pressure are
// deliberately not required and pass through as-is.
func parseCurrentWeather(body []byte) (Reading, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Reading{}, &MalformedResponseError{Field: "response body"}
	}

	var payload struct {
		Main *struct {
			Temp     *float64 `json:"temp"`
			TempMin  *float64 `json:"temp_min"`
			TempMax  *float64 `json:"temp_max"`
			Humidity *float64 `json:"humidity"`
			Pressure *float64 `json:"pressure"`
		} `json:"main"`
		Weather []struct {
			Description *string `json:"description"`
		} `json:"weather"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return Reading{}, err
	}

	switch {
	case payload.Main == nil:
		return Reading{}, &MalformedResponseError{Field: "main section"}
	case payload.Main.Temp == nil:
		return Reading{}, &MalformedResponseError{Field: "temperature"}
	case payload.Main.TempMin == nil:
		return Reading{}, &MalformedResponseError{Field: "temperature minimum"}
	case payload.Main.TempMax == nil:
		return Reading{}, &MalformedResponseError{Field: "temperature maximum"}
	case len(payload.Weather) == 0:
		return Reading{}, &MalformedResponseError{Field: "weather section"}
	case payload.Weather[0].Description == nil:
		return Reading{}, &MalformedResponseError{Field: "weather description"}
	}

	return Reading{
		Temperature:    *payload.Main.Temp,
		TemperatureMin: *payload.Main.TempMin,
		TemperatureMax: *payload.Main.TempMax,
		Humidity:       payload.Main.Humidity,
		Pressure:       payload.Main.Pressure,
		Description:    *payload.Weather[0].Description,
	}, nil
}
