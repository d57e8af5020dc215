package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DevSheroz/glori82-admin/internal/config"
	"github.com/DevSheroz/glori82-admin/internal/currency"
	"github.com/DevSheroz/glori82-admin/internal/lock"
	"github.com/DevSheroz/glori82-admin/internal/obs"
	"github.com/DevSheroz/glori82-admin/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	clientOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(clientOpts)
	defer func() { _ = redisClient.Close() }()

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
	locker := &lock.Locker{R: redisClient}

	mux := asynq.NewServeMux()
	mux.Handle(currency.TaskFXRefresh, currency.RefreshHandler{Service: fxService, Lock: locker, Logger: logger})

	srv := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 2})
	scheduler := asynq.NewScheduler(redisOpt, nil)
	if _, err := scheduler.Register(cfg.FXRefreshCron, currency.NewRefreshTask()); err != nil {
		logger.Fatal().Err(err).Msg("register fx refresh schedule")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		logger.Info().Str("cron", cfg.FXRefreshCron).Msg("scheduler starting")
		if err := scheduler.Run(); err != nil {
			logger.Error().Err(err).Msg("scheduler stopped with error")
		}
	}()
	go func() {
		defer wg.Done()
		logger.Info().Msg("worker starting")
		if err := srv.Run(mux); err != nil {
			logger.Error().Err(err).Msg("worker stopped with error")
		}
	}()

	<-ctx.Done()
	scheduler.Shutdown()
	srv.Shutdown()
	wg.Wait()
	logger.Info().Msg("worker shutdown complete")
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
