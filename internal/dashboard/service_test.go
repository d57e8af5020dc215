package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/DevSheroz/glori82-admin/internal/dashboard"
)

type fakeQuerier struct {
	metricsCalls int
	salesCalls   int
	topCalls     int
	lastFrom     time.Time
	lastTo       time.Time
}

func (f *fakeQuerier) Metrics(context.Context) (dashboard.Metrics, error) {
	f.metricsCalls++
	return dashboard.Metrics{
		ProductCount:     12,
		SalesCount:       4,
		CompletedRevenue: decimal.RequireFromString("1814400"),
		LowStockCount:    2,
	}, nil
}

func (f *fakeQuerier) SalesOverTime(_ context.Context, from, to time.Time) ([]dashboard.SalesPoint, error) {
	f.salesCalls++
	f.lastFrom = from
	f.lastTo = to
	return []dashboard.SalesPoint{{Day: from, Orders: 1, RevenueUZS: decimal.RequireFromString("453600")}}, nil
}

func (f *fakeQuerier) TopProducts(_ context.Context, limit int) ([]dashboard.TopProduct, error) {
	f.topCalls++
	return []dashboard.TopProduct{{ProductName: "Collagen cream", QuantitySold: int64(limit)}}, nil
}

func newService(t *testing.T, q dashboard.Querier) (*dashboard.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &dashboard.Service{
		Q:            q,
		R:            client,
		TTL:          5 * time.Minute,
		DefaultRange: 30,
	}, mr
}

func TestMetricsCachesSecondRead(t *testing.T) {
	q := &fakeQuerier{}
	svc, _ := newService(t, q)

	first, err := svc.Metrics(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(12), first.ProductCount)

	second, err := svc.Metrics(context.Background())
	require.NoError(t, err)
	require.True(t, second.CompletedRevenue.Equal(first.CompletedRevenue))
	require.Equal(t, 1, q.metricsCalls, "second read must come from cache")
}

func TestMetricsRefreshesAfterTTL(t *testing.T) {
	q := &fakeQuerier{}
	svc, mr := newService(t, q)

	_, err := svc.Metrics(context.Background())
	require.NoError(t, err)

	mr.FastForward(10 * time.Minute)

	_, err = svc.Metrics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, q.metricsCalls)
}

func TestSalesOverTimeDefaultsTrailingRange(t *testing.T) {
	q := &fakeQuerier{}
	svc, _ := newService(t, q)
	now := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	_, err := svc.SalesOverTime(context.Background(), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Equal(t, 1, q.salesCalls)
	require.Equal(t, 30, int(q.lastTo.Sub(q.lastFrom).Hours()/24))
}

func TestSalesOverTimeKeyedByRange(t *testing.T) {
	q := &fakeQuerier{}
	svc, _ := newService(t, q)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.SalesOverTime(context.Background(), from, to)
	require.NoError(t, err)
	_, err = svc.SalesOverTime(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 1, q.salesCalls)

	// A different window misses the cache.
	_, err = svc.SalesOverTime(context.Background(), from.AddDate(0, 0, -7), to)
	require.NoError(t, err)
	require.Equal(t, 2, q.salesCalls)
}

func TestTopProductsClampsLimit(t *testing.T) {
	q := &fakeQuerier{}
	svc, _ := newService(t, q)

	products, err := svc.TopProducts(context.Background(), -5)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, int64(10), products[0].QuantitySold, "limit clamped to default")
}
