package weather_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/quickkart/backend-grocer/internal/cache"
	"github.com/quickkart/backend-grocer/internal/weather"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, time.Minute)
}

func TestStatusDetectsBadWeather(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		conditions weather.Conditions
		wantBad    bool
	}{
		{"clear", weather.Conditions{TemperatureC: 28, PrecipMM: 0, WindKPH: 10, Code: 1}, false},
		{"heavy rain", weather.Conditions{PrecipMM: 6.0, WindKPH: 12, Code: 63}, true},
		{"high wind", weather.Conditions{PrecipMM: 0, WindKPH: 55, Code: 2}, true},
		{"thunderstorm code", weather.Conditions{PrecipMM: 0.5, WindKPH: 20, Code: 95}, true},
		{"light drizzle", weather.Conditions{PrecipMM: 0.4, WindKPH: 15, Code: 51}, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := &weather.Service{
				Provider: &weather.StaticProvider{Conditions: tc.conditions},
				Logger:   zerolog.Nop(),
				PrecipMM: 2.5,
				WindKPH:  40,
			}
			status := svc.Status(context.Background(), 12.97, 77.59)
			require.Equal(t, tc.wantBad, status.Bad)
		})
	}
}

func TestStatusCachesVerdictPerCoordinate(t *testing.T) {
	provider := &weather.StaticProvider{Conditions: weather.Conditions{PrecipMM: 5, Code: 63}}
	svc := &weather.Service{
		Provider: provider,
		Cache:    newTestCache(t),
		Logger:   zerolog.Nop(),
		CacheTTL: time.Minute,
		PrecipMM: 2.5,
		WindKPH:  40,
	}
	ctx := context.Background()

	first := svc.Status(ctx, 12.9716, 77.5946)
	require.True(t, first.Bad)
	require.Equal(t, 1, provider.Calls)

	// Nearby coordinate rounds to the same bucket, so the provider is not hit again.
	second := svc.Status(ctx, 12.9701, 77.5950)
	require.True(t, second.Bad)
	require.Equal(t, 1, provider.Calls)
}

func TestStatusDefaultsToGoodWeatherOnProviderFailure(t *testing.T) {
	svc := &weather.Service{
		Provider: &weather.StaticProvider{Err: errors.New("upstream down")},
		Logger:   zerolog.Nop(),
	}
	status := svc.Status(context.Background(), 12.97, 77.59)
	require.False(t, status.Bad)
}
