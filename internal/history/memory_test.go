package history

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"weather-lookup/internal/weather"
)

func TestFindByUserAndPostalCode(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, NewSearchHistory("u1", "95014", "Cupertino", weather.Reading{Temperature: 20})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row, err := s.FindByUserAndPostalCode(ctx, "u1", "95014")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row == nil || row.Town != "Cupertino" {
		t.Fatalf("unexpected row: %+v", row)
	}

	// Same postal code for a different user is a different row space.
	row, err = s.FindByUserAndPostalCode(ctx, "u2", "95014")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row != nil {
		t.Fatalf("expected no row for other user, got %+v", row)
	}
}

func TestUpdateWeatherTouchesOnlyTemperatureAndDescription(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	humidity, pressure := 60.0, 1012.0
	row := NewSearchHistory("u1", "75004", "Paris, France", weather.Reading{
		Temperature:    10,
		TemperatureMin: 8,
		TemperatureMax: 12,
		Humidity:       &humidity,
		Pressure:       &pressure,
		Description:    "mist",
	})
	if err := s.Create(ctx, row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.UpdateWeather(ctx, row.ID, 22.5, "clear sky"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := s.FindByUserAndPostalCode(ctx, "u1", "75004")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Temperature != 22.5 || updated.Description != "clear sky" {
		t.Fatalf("expected refreshed temperature and description, got %+v", updated)
	}
	if updated.TemperatureMin != 8 || updated.TemperatureMax != 12 {
		t.Fatalf("min/max must stay untouched, got %+v", updated)
	}
	if *updated.Humidity != 60 || *updated.Pressure != 1012 {
		t.Fatalf("humidity/pressure must stay untouched, got %+v", updated)
	}
}

func TestRecentReturnsNewestFirstCapped(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		h := NewSearchHistory("u1", fmt.Sprintf("%05d", i), fmt.Sprintf("town %d", i), weather.Reading{})
		if err := s.Create(ctx, h); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Another user's rows must not leak into the listing.
	if err := s.Create(ctx, NewSearchHistory("u2", "99999", "elsewhere", weather.Reading{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := s.Recent(ctx, "u1", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	for i, want := range []string{"town 5", "town 4", "town 3", "town 2"} {
		if rows[i].Town != want {
			t.Fatalf("expected %q at position %d, got %q", want, i, rows[i].Town)
		}
	}
}

func TestCreateRejectsDuplicatePostalCodeForUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Create(ctx, NewSearchHistory("u1", "95014", "Cupertino", weather.Reading{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := s.Create(ctx, NewSearchHistory("u1", "95014", "Apple Park", weather.Reading{}))
	var persistence *PersistenceError
	if !errors.As(err, &persistence) {
		t.Fatalf("expected PersistenceError for a duplicate row, got %v", err)
	}

	rows, err := s.ByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the duplicate to be rejected, got %d rows", len(rows))
	}

	// The same postal code under another user is still allowed.
	if err := s.Create(ctx, NewSearchHistory("u2", "95014", "Cupertino", weather.Reading{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateWeatherUnknownRow(t *testing.T) {
	s := NewMemoryStore()

	err := s.UpdateWeather(context.Background(), 42, 1, "x")
	if err == nil {
		t.Fatal("expected an error for an unknown row id")
	}
}
