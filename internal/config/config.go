package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	AccessTokenTTL   time.Duration
	RememberTokenTTL time.Duration

	FXAPIBaseURL     string
	FXCacheTTL       time.Duration
	FXRequestTimeout time.Duration
	FXRefreshCron    string
	PriceMarkup      float64

	DBMaxOpenConns int
	DBMaxIdleConns int

	RateLimitGlobalPerMin int
	RateLimitLoginPerMin  int

	MaxBodyBytes int64

	DashboardCacheTTL time.Duration

	OTELEndpoint      string
	OTELSamplingRatio float64
	MetricsNamespace  string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		AccessTokenTTL:   parseDuration(k.String("ACCESS_TOKEN_TTL"), "24h"),
		RememberTokenTTL: parseDuration(k.String("REMEMBER_TOKEN_TTL"), "1440h"),

		FXAPIBaseURL:     valueOrDefault(k.String("FX_API_BASE_URL"), "https://open.er-api.com/v6"),
		FXCacheTTL:       parseDuration(k.String("FX_CACHE_TTL"), "1h"),
		FXRequestTimeout: parseDuration(k.String("FX_REQUEST_TIMEOUT"), "10s"),
		FXRefreshCron:    valueOrDefault(k.String("FX_REFRESH_CRON"), "@every 1h"),
		PriceMarkup:      parseFloat(k.String("PRICE_MARKUP"), 1.5),

		DBMaxOpenConns: atoiDefault(k.String("DB_MAX_OPEN_CONNS"), 0),
		DBMaxIdleConns: atoiDefault(k.String("DB_MAX_IDLE_CONNS"), 0),

		RateLimitGlobalPerMin: atoiDefault(k.String("RATE_LIMIT_GLOBAL_PER_MIN"), 300),
		RateLimitLoginPerMin:  atoiDefault(k.String("RATE_LIMIT_LOGIN_PER_MIN"), 10),

		MaxBodyBytes: int64(atoiDefault(k.String("MAX_BODY_BYTES"), 1<<20)),

		DashboardCacheTTL: parseDuration(k.String("DASHBOARD_CACHE_TTL"), "5m"),

		OTELEndpoint:      strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTELSamplingRatio: parseFloat(k.String("OTEL_SAMPLING_RATIO"), 1),
		MetricsNamespace:  valueOrDefault(k.String("METRICS_NAMESPACE"), "glori82"),
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

	return cfg, nil
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

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var f float64
	if _, err := fmt.Sscanf(trimmed, "%f", &f); err != nil || f <= 0 {
		return fallback
	}
	return f
}

func atoiDefault(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(trimmed, "%d", &n); err != nil {
		return fallback
	}
	return n
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
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
