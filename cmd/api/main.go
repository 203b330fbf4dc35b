package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickkart/backend-grocer/internal/app"
	"github.com/quickkart/backend-grocer/internal/config"
	"github.com/quickkart/backend-grocer/internal/health"
	"github.com/quickkart/backend-grocer/internal/obs"
	"github.com/quickkart/backend-grocer/internal/ratelimit"
	"github.com/quickkart/backend-grocer/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "grocer")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "grocer-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "grocer-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	c, err := app.New(cfg, logger, pool, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire services")
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	authLimit := ratelimit.Handler{
		Limiter: c.Limiter,
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return "auth:" + clientIP(r) },
			Window: cfg.AuthRateLimitWindow,
			Max:    cfg.AuthRateLimitMax,
		},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter") },
	}
	couponLimit := ratelimit.Handler{
		Limiter: c.Limiter,
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return "coupon:" + clientIP(r) },
			Window: cfg.CouponRateLimitWindow,
			Max:    cfg.CouponRateLimitMax,
		},
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{
		Enable:     cfg.SecurityHeadersEnabled,
		EnableHSTS: cfg.HSTSEnabled,
	}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", c.Catalog.Products)
		v.Get("/products/{slug}", c.Catalog.ProductDetail)
		v.Get("/categories", c.Catalog.Categories)
		v.Get("/products/{id}/reviews", c.Reviews.List)

		v.Route("/auth", func(a chi.Router) {
			a.Use(authLimit.Middleware)
			a.Post("/register", c.Auth.Register)
			a.Post("/login", c.Auth.Login)
			a.Post("/refresh", c.Auth.Refresh)
			a.Post("/logout", c.Auth.Logout)

			a.With(c.AuthMW.RequireAuth).Get("/me", c.Auth.Me)
		})

		v.Route("/users/me/addresses", func(a chi.Router) {
			a.Use(c.AuthMW.RequireAuth)
			a.Get("/", c.Addresses.ListAddresses)
			a.Post("/", c.Addresses.CreateAddress)
			a.Put("/{id}", c.Addresses.UpdateAddress)
			a.Delete("/{id}", c.Addresses.DeleteAddress)
		})

		v.Route("/cart", func(ct chi.Router) {
			ct.Use(c.AuthMW.RequireAuth)
			ct.Get("/", c.Cart.Get)
			ct.Group(func(g chi.Router) {
				g.Use(c.Idem.Middleware)
				g.Post("/items", c.Cart.AddItem)
				g.Patch("/items/{itemId}", c.Cart.UpdateItem)
				g.Delete("/items/{itemId}", c.Cart.RemoveItem)
				g.Delete("/", c.Cart.Clear)
			})
			ct.With(couponLimit.Middleware).Post("/coupon", c.Cart.ApplyCoupon)
			ct.Delete("/coupon", c.Cart.RemoveCoupon)
		})

		v.With(c.AuthMW.RequireAuth, c.Idem.Middleware).Post("/checkout", c.Checkout.Create)

		v.Group(func(g chi.Router) {
			g.Use(c.AuthMW.RequireAuth)
			g.Get("/orders", c.Orders.List)
			g.Get("/orders/{id}", c.Orders.Get)
			g.Post("/orders/{id}/cancel", c.Orders.Cancel)

			g.With(c.Idem.Middleware).Post("/orders/{id}/payment-intent", c.Payments.CreateIntent)
			g.Get("/orders/{id}/payment", c.Payments.Get)

			g.Get("/favorites", c.Favorites.List)
			g.Post("/favorites", c.Favorites.Toggle)
			g.Get("/favorites/{id}", c.Favorites.Check)

			g.Post("/products/{id}/reviews", c.Reviews.Submit)
			g.Delete("/reviews/{id}", c.Reviews.Delete)
		})

		v.Post("/webhooks/payment", c.Payments.Webhook)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(c.AuthMW.RequireRole("admin"))
			admin.With(c.AuditRec.Middleware("products", "")).Post("/products", c.Catalog.CreateProduct)
			admin.With(c.AuditRec.Middleware("products", "id")).Put("/products/{id}", c.Catalog.UpdateProduct)
			admin.Get("/coupons", c.Coupons.List)
			admin.With(c.AuditRec.Middleware("coupons", "")).Post("/coupons", c.Coupons.Create)
			admin.With(c.AuditRec.Middleware("coupons", "id")).Put("/coupons/{id}", c.Coupons.Update)
			admin.With(c.AuditRec.Middleware("orders", "id")).Patch("/orders/{id}/status", c.Orders.UpdateStatus)
			admin.With(c.AuditRec.Middleware("orders", "id")).Post("/orders/{id}/assign", c.Drivers.Assign)
			admin.Get("/drivers", c.Drivers.List)
			admin.Get("/drivers/nearby", c.Drivers.Nearby)
			admin.With(c.AuditRec.Middleware("drivers", "")).Post("/drivers", c.Drivers.Create)
			admin.Get("/drivers/{id}", c.Drivers.Get)
			admin.With(c.AuditRec.Middleware("drivers", "id")).Patch("/drivers/{id}", c.Drivers.Update)
			admin.With(c.AuditRec.Middleware("drivers", "id")).Post("/drivers/{id}/location", c.Drivers.UpdateLocation)
			admin.Get("/drivers/{id}/orders", c.Drivers.Orders)
			admin.Get("/analytics/sales", c.Analytics.Sales)
			admin.Get("/analytics/top-products", c.Analytics.TopProducts)
			admin.Get("/audit-logs", c.AuditLogs.List)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-stopCtx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
