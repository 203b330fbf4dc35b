package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/quickkart/backend-grocer/internal/pricing"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CurrencyCode     string
	PricingTaxRateBps int

	DeliveryBaseFee        int64
	DeliveryFeeTiers       []pricing.FeeTier
	WeatherSurchargeFee    int64
	WeatherSurchargeNotice string

	WeatherAPIBaseURL      string
	WeatherCacheTTL        time.Duration
	WeatherPrecipMMBad     float64
	WeatherWindKPHBad      float64
	WeatherRequestTimeout  time.Duration

	IdempotencyTTL  time.Duration
	CheckoutLockTTL time.Duration

	AuthRateLimitMax      int
	AuthRateLimitWindow   time.Duration
	CouponRateLimitMax    int
	CouponRateLimitWindow time.Duration

	PaymentProvider      string
	PaymentWebhookSecret string
	PaymentIntentTTL     time.Duration
	FraudCheckEnabled    bool

	CacheTTL              time.Duration
	AnalyticsDefaultRange int

	MaxBodyBytes           int64
	SecurityHeadersEnabled bool
	HSTSEnabled            bool

	AuditEnabled      bool
	AuditSamplingRate float64

	EventWebhookURL    string
	EventWebhookSecret string
	EventWebhookTopics []string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	tiers, err := parseFeeTiers(k.String("DELIVERY_FEE_TIERS"), "20000=2000,35000=1500,50000=0")
	if err != nil {
		return nil, fmt.Errorf("parse DELIVERY_FEE_TIERS: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		AccessTokenTTL:  parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTokenTTL: parseDuration(k.String("REFRESH_TOKEN_TTL"), "720h"),

		CurrencyCode:      valueOrDefault(k.String("CURRENCY_CODE"), "INR"),
		PricingTaxRateBps: parseInt(k.String("PRICING_TAX_RATE_BPS"), 200),

		DeliveryBaseFee:        parseInt64(k.String("DELIVERY_BASE_FEE"), 2500),
		DeliveryFeeTiers:       tiers,
		WeatherSurchargeFee:    parseInt64(k.String("WEATHER_SURCHARGE_FEE"), 3000),
		WeatherSurchargeNotice: valueOrDefault(k.String("WEATHER_SURCHARGE_NOTICE"), "Delivery fee increased due to bad weather in your area"),

		WeatherAPIBaseURL:     valueOrDefault(k.String("WEATHER_API_BASE_URL"), "https://api.open-meteo.com/v1/forecast"),
		WeatherCacheTTL:       parseDuration(k.String("WEATHER_CACHE_TTL"), "10m"),
		WeatherPrecipMMBad:    parseFloat(k.String("WEATHER_PRECIP_MM_BAD"), 2.5),
		WeatherWindKPHBad:     parseFloat(k.String("WEATHER_WIND_KPH_BAD"), 40),
		WeatherRequestTimeout: parseDuration(k.String("WEATHER_REQUEST_TIMEOUT"), "3s"),

		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CheckoutLockTTL: parseDuration(k.String("CHECKOUT_LOCK_TTL"), "15s"),

		AuthRateLimitMax:      parseInt(k.String("AUTH_RATE_LIMIT_MAX"), 20),
		AuthRateLimitWindow:   parseDuration(k.String("AUTH_RATE_LIMIT_WINDOW"), "1m"),
		CouponRateLimitMax:    parseInt(k.String("COUPON_RATE_LIMIT_MAX"), 10),
		CouponRateLimitWindow: parseDuration(k.String("COUPON_RATE_LIMIT_WINDOW"), "1m"),

		PaymentProvider:      valueOrDefault(k.String("PAYMENT_PROVIDER"), "mock"),
		PaymentWebhookSecret: k.String("PAYMENT_WEBHOOK_SECRET"),
		PaymentIntentTTL:     parseDuration(k.String("PAYMENT_INTENT_TTL"), "30m"),
		FraudCheckEnabled:    parseBool(k.String("FRAUD_CHECK_ENABLED"), true),

		CacheTTL:              parseDuration(k.String("CACHE_TTL"), "5m"),
		AnalyticsDefaultRange: parseInt(k.String("ANALYTICS_DEFAULT_RANGE_DAYS"), 30),

		MaxBodyBytes:           parseInt64(k.String("MAX_BODY_BYTES"), 1<<20),
		SecurityHeadersEnabled: parseBool(k.String("SECURITY_HEADERS_ENABLED"), true),
		HSTSEnabled:            parseBool(k.String("HSTS_ENABLED"), false),

		AuditEnabled:      parseBool(k.String("AUDIT_ENABLED"), true),
		AuditSamplingRate: parseFloat(k.String("AUDIT_SAMPLING_RATE"), 1.0),

		EventWebhookURL:    k.String("EVENT_WEBHOOK_URL"),
		EventWebhookSecret: k.String("EVENT_WEBHOOK_SECRET"),
		EventWebhookTopics: splitAndTrim(k.String("EVENT_WEBHOOK_TOPICS")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.PricingTaxRateBps < 0 {
		return nil, errors.New("PRICING_TAX_RATE_BPS must not be negative")
	}

	return cfg, nil
}

// FeeSchedule assembles the pricing fee schedule from configured values.
func (c *Config) FeeSchedule() pricing.FeeSchedule {
	return pricing.FeeSchedule{
		BaseFee:           c.DeliveryBaseFee,
		Tiers:             c.DeliveryFeeTiers,
		BadWeatherFee:     c.WeatherSurchargeFee,
		BadWeatherMessage: c.WeatherSurchargeNotice,
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// parseFeeTiers parses "minSubtotal=fee" pairs (minor units) separated by commas.
func parseFeeTiers(value, fallback string) ([]pricing.FeeTier, error) {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	parts := strings.Split(base, ",")
	tiers := make([]pricing.FeeTier, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		kv := strings.SplitN(trimmed, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed tier %q", trimmed)
		}
		min, err := strconv.ParseInt(strings.TrimSpace(kv[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tier threshold %q: %w", kv[0], err)
		}
		fee, err := strconv.ParseInt(strings.TrimSpace(kv[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tier fee %q: %w", kv[1], err)
		}
		if min < 0 || fee < 0 {
			return nil, fmt.Errorf("tier %q must not be negative", trimmed)
		}
		tiers = append(tiers, pricing.FeeTier{MinSubtotal: min, Fee: fee})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].MinSubtotal < tiers[j].MinSubtotal })
	return tiers, nil
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests overrides environment variables for the duration of a Load call.
func LoadForTests(envs map[string]string) (*Config, error) {
	original := make(map[string]string, len(envs))
	for key := range envs {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, envs[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
