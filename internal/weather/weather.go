// Package weather fetches current conditions from OpenWeatherMap and
// normalizes them into a Reading.
package weather

import "fmt"

// Reading is a normalized current-weather observation. Temperatures and the
// description are always present; humidity and pressure are passed through
// from the provider unvalidated and may be nil.
type Reading struct {
	Temperature    float64  `json:"temperature"`
	TemperatureMin float64  `json:"temperature_min"`
	TemperatureMax float64  `json:"temperature_max"`
	Humidity       *float64 `json:"humidity"`
	Pressure       *float64 `json:"pressure"`
	Description    string   `json:"description"`
}

// MalformedResponseError reports a provider response that parsed but was
// missing a required field.
type MalformedResponseError struct {
	Field string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("openweather %s is missing", e.Field)
}
