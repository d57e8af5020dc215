package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DevSheroz/glori82-admin/internal/auth"
	"github.com/DevSheroz/glori82-admin/internal/category"
	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/config"
	"github.com/DevSheroz/glori82-admin/internal/currency"
	"github.com/DevSheroz/glori82-admin/internal/customer"
	"github.com/DevSheroz/glori82-admin/internal/dashboard"
	"github.com/DevSheroz/glori82-admin/internal/db"
	"github.com/DevSheroz/glori82-admin/internal/health"
	"github.com/DevSheroz/glori82-admin/internal/obs"
	"github.com/DevSheroz/glori82-admin/internal/order"
	"github.com/DevSheroz/glori82-admin/internal/product"
	"github.com/DevSheroz/glori82-admin/internal/ratelimit"
	"github.com/DevSheroz/glori82-admin/internal/resilience"
	"github.com/DevSheroz/glori82-admin/internal/security"
	"github.com/DevSheroz/glori82-admin/internal/shipment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	tracingEnabled := cfg.OTELEndpoint != ""
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "glori82-admin-api",
			Endpoint:      cfg.OTELEndpoint,
			Exporter:      "otlp",
			SamplingRatio: cfg.OTELSamplingRatio,
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

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
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
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "glori82-admin-api"

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
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	markup := decimal.NewFromFloat(cfg.PriceMarkup)

	fxService := &currency.Service{
		Provider: &currency.ERAPIProvider{
			BaseURL: cfg.FXAPIBaseURL,
			Client: resilience.HTTPClient{
				Client:  &http.Client{Timeout: cfg.FXRequestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
				Breaker: resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("fx_upstream").WithLogger(logger),
			},
		},
		R:      redisClient,
		TTL:    cfg.FXCacheTTL,
		Logger: logger,
	}
	fxHandler := currency.Handler{Service: fxService, Markup: markup}

	authService, err := auth.NewService(auth.Config{
		Store:            &auth.Store{DB: pool},
		Secret:           cfg.JWTSecret,
		AccessTokenTTL:   cfg.AccessTokenTTL,
		RememberTokenTTL: cfg.RememberTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := auth.Handler{Service: authService}
	authMiddleware := auth.Middleware{Service: authService}

	productService := &product.Service{
		Store:  &product.Store{DB: pool},
		FX:     fxService,
		Markup: markup,
	}
	productHandler := product.Handler{Service: productService}

	categoryHandler := category.Handler{Store: &category.Store{DB: pool}}

	customerStore := &customer.Store{DB: pool}
	customerHandler := customer.Handler{Store: customerStore}

	orderService := &order.Service{
		Store:     &order.Store{DB: pool, Pool: pool},
		Customers: customerStore,
		Products:  productService,
		FX:        fxService,
	}
	orderHandler := order.Handler{Service: orderService}

	shipmentService := &shipment.Service{
		Store: &shipment.Store{DB: pool, Pool: pool},
		FX:    fxService,
	}
	shipmentHandler := shipment.Handler{Service: shipmentService}

	dashboardService := &dashboard.Service{
		Q:   &dashboard.Store{DB: pool},
		R:   redisClient,
		TTL: cfg.DashboardCacheTTL,
	}
	dashboardHandler := dashboard.Handler{Service: dashboardService}

	limiterStore, err := ratelimit.NewStore(redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}
	globalLimit := ratelimit.Middleware(limiterStore, ratelimit.PerMinute(cfg.RateLimitGlobalPerMin), "global")
	loginLimit := ratelimit.Middleware(limiterStore, ratelimit.PerMinute(cfg.RateLimitLoginPerMin), "login")

	idem := common.Idem{R: redisClient, TTL: 24 * time.Hour}

	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, nil, nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{
		Checker:      health.Probes{DB: pool, Redis: redisClient},
		DBTimeout:    500 * time.Millisecond,
		RedisTimeout: 300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api", func(api chi.Router) {
		api.Use(globalLimit)

		api.Route("/auth", func(a chi.Router) {
			a.With(loginLimit).Post("/login", authHandler.Login)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		api.Get("/currency/rates", fxHandler.Rates)

		api.Group(func(protected chi.Router) {
			protected.Use(authMiddleware.RequireAuth)

			protected.Route("/products", func(p chi.Router) {
				p.Get("/", productHandler.List)
				p.Post("/", productHandler.Create)
				p.Get("/brands", productHandler.Brands)
				p.Get("/low-stock", productHandler.LowStock)
				p.Get("/{id}", productHandler.Get)
				p.Put("/{id}", productHandler.Update)
				p.With(auth.RequireRole("admin")).Delete("/{id}", productHandler.Delete)
			})

			protected.Route("/categories", func(c chi.Router) {
				c.Get("/", categoryHandler.List)
				c.Post("/", categoryHandler.Create)
				c.Get("/{id}", categoryHandler.Get)
				c.Put("/{id}", categoryHandler.Update)
				c.With(auth.RequireRole("admin")).Delete("/{id}", categoryHandler.Delete)
				c.Post("/{id}/attributes", categoryHandler.AddAttribute)
				c.Put("/{id}/attributes/{attributeID}", categoryHandler.UpdateAttribute)
				c.Delete("/{id}/attributes/{attributeID}", categoryHandler.DeleteAttribute)
			})

			protected.Route("/customers", func(c chi.Router) {
				c.Get("/", customerHandler.List)
				c.Post("/", customerHandler.Create)
				c.Get("/{id}", customerHandler.Get)
				c.Put("/{id}", customerHandler.Update)
				c.With(auth.RequireRole("admin")).Delete("/{id}", customerHandler.Delete)
			})

			protected.Route("/orders", func(o chi.Router) {
				o.Get("/", orderHandler.List)
				o.With(idem.Middleware).Post("/", orderHandler.Create)
				o.Get("/{id}", orderHandler.Get)
				o.Put("/{id}", orderHandler.Update)
				o.With(auth.RequireRole("admin")).Delete("/{id}", orderHandler.Delete)
			})

			protected.Route("/shipments", func(s chi.Router) {
				s.Get("/", shipmentHandler.List)
				s.With(idem.Middleware).Post("/", shipmentHandler.Create)
				s.Get("/{id}", shipmentHandler.Get)
				s.Patch("/{id}/status", shipmentHandler.UpdateStatus)
				s.Post("/{id}/orders", shipmentHandler.AttachOrder)
				s.Delete("/{id}/orders/{orderID}", shipmentHandler.DetachOrder)
				s.With(auth.RequireRole("admin")).Delete("/{id}", shipmentHandler.Delete)
			})

			protected.Route("/dashboard", func(d chi.Router) {
				d.Get("/metrics", dashboardHandler.Metrics)
				d.Get("/sales-over-time", dashboardHandler.SalesOverTime)
				d.Get("/top-products", dashboardHandler.TopProducts)
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
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

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
