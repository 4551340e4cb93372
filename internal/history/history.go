// Package history persists the per-user record of past weather lookups.
package history

import (
	"context"
	"fmt"
	"time"

	"weather-lookup/internal/weather"
)

// SearchHistory is one stored lookup. A user has at most one row per postal
// code; the town column holds the raw address text the user typed, not a
// resolved place name, because the refresh job re-geocodes from it.
type SearchHistory struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"-"`
	PostalCode     string    `json:"postal_code"`
	Town           string    `json:"town"`
	Temperature    float64   `json:"temperature"`
	TemperatureMin float64   `json:"temperature_min"`
	TemperatureMax float64   `json:"temperature_max"`
	Humidity       *float64  `json:"humidity"`
	Pressure       *float64  `json:"pressure"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewSearchHistory builds a row from a lookup's inputs and its reading.
func NewSearchHistory(userID, postalCode, town string, r weather.Reading) *SearchHistory {
	return &SearchHistory{
		UserID:         userID,
		PostalCode:     postalCode,
		Town:           town,
		Temperature:    r.Temperature,
		TemperatureMin: r.TemperatureMin,
		TemperatureMax: r.TemperatureMax,
		Humidity:       r.Humidity,
		Pressure:       r.Pressure,
		Description:    r.Description,
	}
}

// Store is the persistence contract for search history rows.
type Store interface {
	// FindByUserAndPostalCode returns nil, nil when no row exists.
	FindByUserAndPostalCode(ctx context.Context, userID, postalCode string) (*SearchHistory, error)
	Create(ctx context.Context, h *SearchHistory) error
	// UpdateWeather refreshes only the temperature and description of a row.
	UpdateWeather(ctx context.Context, id int64, temperature float64, description string) error
	// All returns every row across all users, oldest first.
	All(ctx context.Context) ([]SearchHistory, error)
	// Recent returns up to limit rows for a user, most recent first.
	Recent(ctx context.Context, userID string, limit int) ([]SearchHistory, error)
	// ByUser returns all rows for a user, oldest first.
	ByUser(ctx context.Context, userID string) ([]SearchHistory, error)
}

// PersistenceError wraps a storage failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
