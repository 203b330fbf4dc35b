package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quickkart/backend-grocer/internal/resilience"
)

// DefaultBaseURL points at the public Open-Meteo forecast API.
const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteo implements Provider against the Open-Meteo current-weather API.
// Requests go through the resilience client so upstream flakiness retries and
// eventually trips the breaker instead of hanging checkout traffic.
type OpenMeteo struct {
	HTTP    resilience.HTTPClient
	BaseURL string
}

type openMeteoResponse struct {
	Current struct {
		Time          string  `json:"time"`
		Temperature2M float64 `json:"temperature_2m"`
		Precipitation float64 `json:"precipitation"`
		WindSpeed10M  float64 `json:"wind_speed_10m"`
		WeatherCode   int     `json:"weather_code"`
	} `json:"current"`
}

// Current fetches current conditions for the coordinate pair.
func (o OpenMeteo) Current(ctx context.Context, lat, lon float64) (Conditions, error) {
	base := o.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	endpoint, err := url.Parse(base)
	if err != nil {
		return Conditions{}, fmt.Errorf("weather: parse base url: %w", err)
	}
	q := endpoint.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("current", "temperature_2m,precipitation,wind_speed_10m,weather_code")
	q.Set("wind_speed_unit", "kmh")
	q.Set("timezone", "UTC")
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Conditions{}, err
	}
	resp, err := o.HTTP.Do(ctx, req)
	if err != nil {
		return Conditions{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Conditions{}, fmt.Errorf("weather: upstream returned %s", resp.Status)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Conditions{}, fmt.Errorf("weather: decode response: %w", err)
	}

	observed := time.Now().UTC()
	if ts, err := time.Parse("2006-01-02T15:04", payload.Current.Time); err == nil {
		observed = ts
	}
	return Conditions{
		TemperatureC: payload.Current.Temperature2M,
		PrecipMM:     payload.Current.Precipitation,
		WindKPH:      payload.Current.WindSpeed10M,
		Code:         payload.Current.WeatherCode,
		ObservedAt:   observed,
	}, nil
}
