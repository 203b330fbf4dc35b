package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quickkart/backend-grocer/internal/cache"
	"github.com/quickkart/backend-grocer/internal/obs"
)

// Status is the pricing-facing verdict derived from raw conditions.
type Status struct {
	Bad        bool       `json:"bad"`
	Conditions Conditions `json:"conditions"`
}

// Service resolves whether delivery conditions at a location count as bad
// weather. Lookups are cached per rounded coordinate; provider failures fall
// back to good weather so pricing never blocks on the upstream API.
type Service struct {
	Provider Provider
	Cache    *cache.Cache
	Logger   zerolog.Logger
	CacheTTL time.Duration
	PrecipMM float64
	WindKPH  float64
}

// Severe WMO weather codes: rain/snow showers and thunderstorms.
const severeCodeThreshold = 80

// Status returns the weather verdict for the coordinate pair. It never
// returns an error: when the upstream provider and cache both fail the safe
// default is good weather with zero conditions.
func (s *Service) Status(ctx context.Context, lat, lon float64) Status {
	key := s.cacheKey(lat, lon)

	var cached Status
	if s.Cache != nil {
		hit, err := s.Cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.Logger.Warn().Err(err).Str("key", key).Msg("weather cache read failed")
		} else if hit {
			countLookup("cache", "hit")
			return cached
		}
	}

	if s.Provider == nil {
		countLookup("none", "default")
		return Status{}
	}

	conditions, err := s.Provider.Current(ctx, lat, lon)
	if err != nil {
		s.Logger.Warn().Err(err).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("weather lookup failed, defaulting to good weather")
		countLookup("provider", "error")
		return Status{}
	}
	countLookup("provider", "ok")

	status := Status{Bad: s.isBad(conditions), Conditions: conditions}
	if s.Cache != nil {
		ttl := s.CacheTTL
		if ttl <= 0 {
			ttl = 10 * time.Minute
		}
		if err := s.Cache.SetJSONTTL(ctx, key, status, ttl); err != nil {
			s.Logger.Warn().Err(err).Str("key", key).Msg("weather cache write failed")
		}
	}
	return status
}

func (s *Service) isBad(c Conditions) bool {
	precipBad := s.PrecipMM
	if precipBad <= 0 {
		precipBad = 2.5
	}
	windBad := s.WindKPH
	if windBad <= 0 {
		windBad = 40
	}
	if c.PrecipMM >= precipBad {
		return true
	}
	if c.WindKPH >= windBad {
		return true
	}
	return c.Code >= severeCodeThreshold
}

// cacheKey buckets coordinates to two decimal places (roughly 1km) so nearby
// addresses share a cached verdict.
func (s *Service) cacheKey(lat, lon float64) string {
	return fmt.Sprintf("weather:%.2f:%.2f", lat, lon)
}

func countLookup(source, result string) {
	if obs.WeatherLookupTotal == nil {
		return
	}
	obs.WeatherLookupTotal.WithLabelValues(source, result).Inc()
}
