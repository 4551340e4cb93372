package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"weather-lookup/internal/cache"
	"weather-lookup/internal/geocode"
	"weather-lookup/internal/history"
	"weather-lookup/internal/pipeline"
	"weather-lookup/internal/scheduler"
	"weather-lookup/internal/weather"
)

type stubGeocoder struct {
	result geocode.Result
	fail   bool
}

func (g *stubGeocoder) Resolve(ctx context.Context, address string) (geocode.Result, error) {
	if g.fail {
		return geocode.Result{}, &geocode.ResolutionError{Address: address}
	}
	return g.result, nil
}

type stubFetcher struct {
	reading weather.Reading
}

func (f *stubFetcher) Fetch(ctx context.Context, lat, lon float64) (weather.Reading, error) {
	return f.reading, nil
}

func newTestApp(t *testing.T, geocoder geocode.Geocoder, store history.Store) *fiber.App {
	t.Helper()

	fetcher := &stubFetcher{reading: weather.Reading{Temperature: 18.5, Description: "clear sky"}}
	c := cache.NewMemoryCache()
	lookup := pipeline.NewLookup(geocoder, fetcher, c, store, 30*time.Minute)
	refresh := pipeline.NewRefresh(geocoder, fetcher, c, store, 30*time.Minute)

	app := fiber.New()
	RegisterRoutes(app, Deps{
		Lookup:    lookup,
		History:   store,
		Scheduler: scheduler.New(refresh, 0),
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, userID string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func decodeMap(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestRoutesRequireUserIdentity(t *testing.T) {
	app := newTestApp(t, &stubGeocoder{}, history.NewMemoryStore())

	for _, target := range []string{"/api/v1/forecast", "/api/v1/history", "/api/v1/history/all"} {
		resp := doRequest(t, app, http.MethodGet, target, "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 without X-User-ID, got %d", target, resp.StatusCode)
		}
	}

	resp := doRequest(t, app, http.MethodPost, "/api/v1/refresh", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh: expected 401 without X-User-ID, got %d", resp.StatusCode)
	}
}

func TestForecastWithoutAddress(t *testing.T) {
	app := newTestApp(t, &stubGeocoder{}, history.NewMemoryStore())

	resp := doRequest(t, app, http.MethodGet, "/api/v1/forecast", "u1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeMap(t, resp)
	if body["default_address"] != DefaultAddress {
		t.Fatalf("expected the default address prefill, got %v", body["default_address"])
	}
	if _, ok := body["weather"]; ok {
		t.Fatal("no weather block expected without an address")
	}
	if _, ok := body["history"]; !ok {
		t.Fatal("history must always be present")
	}
}

func TestForecastSuccess(t *testing.T) {
	store := history.NewMemoryStore()
	geocoder := &stubGeocoder{result: geocode.Result{CountryCode: "US", PostalCode: "95014"}}
	app := newTestApp(t, geocoder, store)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/forecast?address=Cupertino", "u1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeMap(t, resp)
	weatherBlock, ok := body["weather"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected a weather block, got %v", body)
	}
	if weatherBlock["description"] != "clear sky" {
		t.Fatalf("unexpected weather: %v", weatherBlock)
	}

	// The fresh lookup is part of the rendered history.
	items, ok := body["history"].([]interface{})
	if !ok || len(items) != 1 {
		t.Fatalf("expected the new row in history, got %v", body["history"])
	}
}

func TestForecastFailureDegradesToWarning(t *testing.T) {
	app := newTestApp(t, &stubGeocoder{fail: true}, history.NewMemoryStore())

	resp := doRequest(t, app, http.MethodGet, "/api/v1/forecast?address=nowhere", "u1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("a failed lookup must not fail the request, got %d", resp.StatusCode)
	}

	body := decodeMap(t, resp)
	warning, ok := body["warning"].(string)
	if !ok || warning == "" {
		t.Fatalf("expected a warning message, got %v", body)
	}
	if _, ok := body["weather"]; ok {
		t.Fatal("no weather block expected on failure")
	}
}

func TestHistoryWindow(t *testing.T) {
	store := history.NewMemoryStore()
	for i := 0; i < 6; i++ {
		h := history.NewSearchHistory("u1", string(rune('a'+i)), "town", weather.Reading{})
		if err := store.Create(context.Background(), h); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	app := newTestApp(t, &stubGeocoder{}, store)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/history", "u1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var items []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected the 4 most recent rows, got %d", len(items))
	}

	// Out-of-range limit is rejected.
	resp = doRequest(t, app, http.MethodGet, "/api/v1/history?limit=0", "u1")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit=0, got %d", resp.StatusCode)
	}
}

func TestHistoryAllReturnsEveryRow(t *testing.T) {
	store := history.NewMemoryStore()
	for i := 0; i < 6; i++ {
		h := history.NewSearchHistory("u1", fmt.Sprintf("%05d", i), fmt.Sprintf("town %d", i), weather.Reading{})
		if err := store.Create(context.Background(), h); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Another user's row must stay out of the listing.
	if err := store.Create(context.Background(), history.NewSearchHistory("u2", "99999", "elsewhere", weather.Reading{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	app := newTestApp(t, &stubGeocoder{}, store)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/history/all", "u1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var rows []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("expected all 6 rows, beyond the recent window, got %d", len(rows))
	}
	for i, row := range rows {
		if row["town"] != fmt.Sprintf("town %d", i) {
			t.Fatalf("unexpected row order at %d: %v", i, row["town"])
		}
	}
}

func TestRefreshTriggerAcknowledges(t *testing.T) {
	app := newTestApp(t, &stubGeocoder{}, history.NewMemoryStore())

	resp := doRequest(t, app, http.MethodPost, "/api/v1/refresh", "u1")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	body := decodeMap(t, resp)
	if body["message"] != "weather refresh started" {
		t.Fatalf("unexpected acknowledgement: %v", body)
	}
	if id, ok := body["id"].(string); !ok || id == "" {
		t.Fatalf("expected a run id, got %v", body["id"])
	}
}
