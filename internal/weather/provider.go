package weather

import (
	"context"
	"time"
)

// Conditions is a normalised snapshot of current weather at a location.
type Conditions struct {
	TemperatureC float64   `json:"temperature_c"`
	PrecipMM     float64   `json:"precip_mm"`
	WindKPH      float64   `json:"wind_kph"`
	Code         int       `json:"code"`
	ObservedAt   time.Time `json:"observed_at"`
}

// Provider fetches current conditions from an upstream weather API.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (Conditions, error)
}
