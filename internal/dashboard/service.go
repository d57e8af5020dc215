package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/DevSheroz/glori82-admin/internal/obs"
)

// Querier defines the database access the dashboard needs.
type Querier interface {
	Metrics(ctx context.Context) (Metrics, error)
	SalesOverTime(ctx context.Context, from, to time.Time) ([]SalesPoint, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
}

// Service provides Redis-cached access to the dashboard aggregates.
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts)+1)
	formatted = append(formatted, "dash")
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// Metrics returns the headline summary.
func (s *Service) Metrics(ctx context.Context) (Metrics, error) {
	if s == nil || s.Q == nil {
		return Metrics{}, fmt.Errorf("dashboard service not configured")
	}
	key := cacheKey("metrics")
	var cached Metrics
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	m, err := s.Q.Metrics(ctx)
	if err != nil {
		return Metrics{}, err
	}
	s.store(ctx, key, m)
	return m, nil
}

// SalesOverTime returns the per-day completed sales between the bounds.
// Zero bounds default to the trailing DefaultRange days.
func (s *Service) SalesOverTime(ctx context.Context, from, to time.Time) ([]SalesPoint, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("dashboard service not configured")
	}
	if to.IsZero() {
		to = s.now().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	}
	if from.IsZero() {
		days := s.DefaultRange
		if days <= 0 {
			days = 30
		}
		from = to.AddDate(0, 0, -days)
	}
	key := cacheKey("sales", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []SalesPoint
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	points, err := s.Q.SalesOverTime(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, points)
	return points, nil
}

// TopProducts returns the best sellers.
func (s *Service) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("dashboard service not configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	key := cacheKey("top", limit)
	var cached []TopProduct
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	products, err := s.Q.TopProducts(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, products)
	return products, nil
}

func (s *Service) fromCache(ctx context.Context, key string, out any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		countCache("miss")
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		countCache("miss")
		return false
	}
	countCache("hit")
	return true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

func countCache(result string) {
	if obs.DashboardCacheTotal != nil {
		obs.DashboardCacheTotal.WithLabelValues(result).Inc()
	}
}
