// Package app assembles the service graph shared by the API entrypoint.
package app

import (
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quickkart/backend-grocer/internal/analytics"
	"github.com/quickkart/backend-grocer/internal/audit"
	"github.com/quickkart/backend-grocer/internal/auth"
	"github.com/quickkart/backend-grocer/internal/cache"
	"github.com/quickkart/backend-grocer/internal/cart"
	"github.com/quickkart/backend-grocer/internal/catalog"
	"github.com/quickkart/backend-grocer/internal/checkout"
	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/config"
	"github.com/quickkart/backend-grocer/internal/coupon"
	"github.com/quickkart/backend-grocer/internal/driver"
	"github.com/quickkart/backend-grocer/internal/events"
	"github.com/quickkart/backend-grocer/internal/favorites"
	"github.com/quickkart/backend-grocer/internal/fraud"
	"github.com/quickkart/backend-grocer/internal/lock"
	"github.com/quickkart/backend-grocer/internal/notify"
	"github.com/quickkart/backend-grocer/internal/order"
	"github.com/quickkart/backend-grocer/internal/payment"
	"github.com/quickkart/backend-grocer/internal/ratelimit"
	"github.com/quickkart/backend-grocer/internal/resilience"
	"github.com/quickkart/backend-grocer/internal/reviews"
	"github.com/quickkart/backend-grocer/internal/store"
	"github.com/quickkart/backend-grocer/internal/user"
	"github.com/quickkart/backend-grocer/internal/weather"
)

// Container holds every wired service and handler. The entrypoint builds one
// and mounts its handlers onto the router.
type Container struct {
	Cfg    *config.Config
	Logger zerolog.Logger

	Queries   *store.Queries
	Cache     *cache.Cache
	Validator *validator.Validate
	Bus       *events.Bus
	Weather   *weather.Service
	Idem      common.Idem
	Limiter   ratelimit.Limiter

	AuthService *auth.Service
	AuthMW      auth.Middleware
	AuditRec    audit.Recorder

	Auth      *auth.Handler
	Addresses *user.Handler
	Catalog   *catalog.Handler
	Cart      *cart.Handler
	Checkout  *checkout.Handler
	Orders    *order.Handler
	Payments  *payment.Handler
	Favorites *favorites.Handler
	Reviews   *reviews.Handler
	Coupons   *coupon.Handler
	Drivers   *driver.Handler
	Analytics *analytics.Handler
	AuditLogs *audit.Handler
}

// New wires the full service graph from shared infrastructure.
func New(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client) (*Container, error) {
	queries := store.New(pool)
	appCache := cache.New(rdb, cfg.CacheTTL)
	validate := validator.New()

	authSvc, err := auth.NewService(auth.Config{
		Queries:         queries,
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return nil, err
	}
	authMW := auth.Middleware{Service: authSvc}

	notifiers := []events.Notifier{events.LogNotifier{Logger: logger}}
	if cfg.EventWebhookURL != "" {
		topics := make(map[string]bool, len(cfg.EventWebhookTopics))
		for _, t := range cfg.EventWebhookTopics {
			topics[t] = true
		}
		notifiers = append(notifiers, &notify.WebhookNotifier{
			URL:    cfg.EventWebhookURL,
			Secret: cfg.EventWebhookSecret,
			Topics: topics,
			HTTP: resilience.HTTPClient{
				Client:      resilience.NewOutboundClient(0),
				Breaker:     resilience.NewBreaker(5, 0.6, 30*time.Second).WithTarget("event-webhook").WithLogger(logger),
				MaxAttempts: 3,
				Timeout:     5 * time.Second,
			},
			Logger: logger,
		})
	}
	bus := &events.Bus{Store: queries, Notifiers: notifiers}

	weatherSvc := &weather.Service{
		Provider: weather.OpenMeteo{
			BaseURL: cfg.WeatherAPIBaseURL,
			HTTP: resilience.HTTPClient{
				Client:      resilience.NewOutboundClient(0),
				Breaker:     resilience.NewBreaker(10, 0.5, time.Minute).WithTarget("open-meteo").WithLogger(logger),
				MaxAttempts: 2,
				Timeout:     cfg.WeatherRequestTimeout,
			},
		},
		Cache:    appCache,
		Logger:   logger,
		CacheTTL: cfg.WeatherCacheTTL,
		PrecipMM: cfg.WeatherPrecipMMBad,
		WindKPH:  cfg.WeatherWindKPHBad,
	}

	schedule := cfg.FeeSchedule()
	couponSvc := &coupon.Service{Q: queries}
	cartSvc := &cart.Service{Q: queries, Coupons: couponSvc, Schedule: schedule, TaxBps: cfg.PricingTaxRateBps}
	checkoutSvc := &checkout.Service{
		Q:        queries,
		Pool:     pool,
		Locker:   lock.Locker{R: rdb},
		Bus:      bus,
		Schedule: schedule,
		TaxBps:   cfg.PricingTaxRateBps,
		LockTTL:  cfg.CheckoutLockTTL,
	}
	orderSvc := &order.Service{Q: queries, Pool: pool, Bus: bus}
	paymentSvc := &payment.Service{
		Q:             queries,
		Pool:          pool,
		Provider:      &payment.MockProvider{},
		Bus:           bus,
		WebhookSecret: cfg.PaymentWebhookSecret,
		IntentTTL:     cfg.PaymentIntentTTL,
	}
	if cfg.FraudCheckEnabled {
		paymentSvc.Risk = &fraud.Service{Q: queries}
	}
	driverSvc := &driver.Service{Q: queries}
	catalogSvc := &catalog.Service{Q: queries, Cache: appCache}
	favoritesSvc := &favorites.Service{Q: queries}
	reviewsSvc := &reviews.Service{Q: queries}
	analyticsSvc := &analytics.Service{Q: queries, Cache: appCache, DefaultRange: cfg.AnalyticsDefaultRange}
	auditSvc := &audit.Service{Q: queries, Enabled: cfg.AuditEnabled, SamplingRate: cfg.AuditSamplingRate}

	return &Container{
		Cfg:    cfg,
		Logger: logger,

		Queries:   queries,
		Cache:     appCache,
		Validator: validate,
		Bus:       bus,
		Weather:   weatherSvc,
		Idem:      common.Idem{R: rdb, TTL: cfg.IdempotencyTTL},
		Limiter:   ratelimit.Limiter{Client: rdb, Prefix: "rl"},

		AuthService: authSvc,
		AuthMW:      authMW,
		AuditRec:    audit.Recorder{Service: auditSvc, Logger: logger},

		Auth:      &auth.Handler{Service: authSvc},
		Addresses: &user.Handler{Q: queries, Validator: validate},
		Catalog:   &catalog.Handler{Svc: catalogSvc, Validator: validate},
		Cart:      &cart.Handler{Svc: cartSvc, Weather: weatherSvc, Addresses: queries, Currency: cfg.CurrencyCode},
		Checkout:  &checkout.Handler{Svc: checkoutSvc, Weather: weatherSvc},
		Orders:    &order.Handler{Svc: orderSvc},
		Payments:  &payment.Handler{Svc: paymentSvc},
		Favorites: &favorites.Handler{Svc: favoritesSvc},
		Reviews:   &reviews.Handler{Svc: reviewsSvc},
		Coupons:   &coupon.Handler{Svc: couponSvc, Validator: validate},
		Drivers:   &driver.Handler{Svc: driverSvc, Validator: validate},
		Analytics: &analytics.Handler{Svc: analyticsSvc},
		AuditLogs: &audit.Handler{Svc: auditSvc},
	}, nil
}
