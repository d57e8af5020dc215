package currency_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/DevSheroz/glori82-admin/internal/currency"
	"github.com/DevSheroz/glori82-admin/internal/resilience"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func erapiServer(t *testing.T, krw, uzs float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/latest/USD", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": "success",
			"rates":  map[string]float64{"KRW": krw, "UZS": uzs},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProviderFetch(t *testing.T) {
	srv := erapiServer(t, 1333.33, 12600)
	p := &currency.ERAPIProvider{BaseURL: srv.URL, Client: resilience.HTTPClient{Client: srv.Client()}}

	snap, err := p.Fetch(context.Background())
	require.NoError(t, err)
	require.True(t, snap.Valid())
	require.True(t, snap.USDToUZS.Equal(decimal.RequireFromString("12600")))
	// krw_to_usd is the inverse of the published USD→KRW rate.
	require.True(t, snap.KRWToUSD.Mul(decimal.RequireFromString("1333.33")).Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.RequireFromString("0.0001")))
	require.False(t, snap.FetchedAt.IsZero())
}

func TestProviderRejectsFailureResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"result": "error"})
	}))
	defer srv.Close()
	p := &currency.ERAPIProvider{BaseURL: srv.URL, Client: resilience.HTTPClient{Client: srv.Client()}}
	_, err := p.Fetch(context.Background())
	require.Error(t, err)
}

type stubProvider struct {
	snap  currency.Snapshot
	err   error
	calls int
}

func (s *stubProvider) Fetch(context.Context) (currency.Snapshot, error) {
	s.calls++
	return s.snap, s.err
}

func TestServiceCachesSnapshot(t *testing.T) {
	stub := &stubProvider{snap: currency.Snapshot{
		KRWToUSD:  decimal.RequireFromString("0.00075"),
		USDToUZS:  decimal.RequireFromString("12600"),
		FetchedAt: time.Now().UTC(),
	}}
	svc := &currency.Service{Provider: stub, R: newRedis(t), TTL: time.Hour, Logger: zerolog.Nop()}

	first, err := svc.Rates(context.Background())
	require.NoError(t, err)
	require.True(t, first.Valid())

	second, err := svc.Rates(context.Background())
	require.NoError(t, err)
	require.True(t, second.USDToUZS.Equal(first.USDToUZS))
	require.Equal(t, 1, stub.calls, "second read must come from cache")
}

func TestServiceServesStaleOnUpstreamFailure(t *testing.T) {
	good := currency.Snapshot{
		KRWToUSD:  decimal.RequireFromString("0.00075"),
		USDToUZS:  decimal.RequireFromString("12600"),
		FetchedAt: time.Now().UTC(),
	}
	stub := &stubProvider{snap: good}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := &currency.Service{Provider: stub, R: client, TTL: time.Hour, Logger: zerolog.Nop()}

	require.NoError(t, svc.Refresh(context.Background()))

	// Expire the primary cache entry but keep the stale copy, then fail upstream.
	mr.FastForward(2 * time.Hour)
	stub.err = errors.New("upstream down")

	snap, err := svc.Rates(context.Background())
	require.NoError(t, err)
	require.True(t, snap.USDToUZS.Equal(good.USDToUZS), "stale snapshot expected")
}

func TestServiceZeroSnapshotWhenNothingCached(t *testing.T) {
	stub := &stubProvider{err: errors.New("upstream down")}
	svc := &currency.Service{Provider: stub, R: newRedis(t), TTL: time.Hour, Logger: zerolog.Nop()}

	snap, err := svc.Rates(context.Background())
	require.NoError(t, err)
	require.False(t, snap.Valid())
	require.True(t, snap.USDToUZS.IsZero())
}

func TestHandlerRatesWithPreview(t *testing.T) {
	stub := &stubProvider{snap: currency.Snapshot{
		KRWToUSD:  decimal.RequireFromString("0.00075"),
		USDToUZS:  decimal.RequireFromString("12600"),
		FetchedAt: time.Now().UTC(),
	}}
	svc := &currency.Service{Provider: stub, R: newRedis(t), TTL: time.Hour, Logger: zerolog.Nop()}
	h := currency.Handler{Service: svc, Markup: decimal.RequireFromString("1.5")}

	req := httptest.NewRequest(http.MethodGet, "/api/currency/rates?preview_cost_krw=10000", nil)
	rec := httptest.NewRecorder()
	h.Rates(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			KRWToUSD decimal.Decimal `json:"krw_to_usd"`
			USDToUZS decimal.Decimal `json:"usd_to_uzs"`
			Preview  *struct {
				SalePriceUSD decimal.Decimal `json:"sale_price_usd"`
				SalePriceUZS decimal.Decimal `json:"sale_price_uzs"`
			} `json:"preview"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Data.USDToUZS.Equal(decimal.RequireFromString("12600")))
	require.NotNil(t, body.Data.Preview)
	// 10000 * 0.00075 * 1.5 = 11.25 USD; 11.25 * 12600 = 141750 UZS.
	require.True(t, body.Data.Preview.SalePriceUSD.Equal(decimal.RequireFromString("11.25")))
	require.True(t, body.Data.Preview.SalePriceUZS.Equal(decimal.RequireFromString("141750")))
}

func TestHandlerRejectsBadPreviewCost(t *testing.T) {
	stub := &stubProvider{snap: currency.Snapshot{USDToUZS: decimal.RequireFromString("12600")}}
	svc := &currency.Service{Provider: stub, R: newRedis(t), TTL: time.Hour, Logger: zerolog.Nop()}
	h := currency.Handler{Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/api/currency/rates?preview_cost_krw=abc", nil)
	rec := httptest.NewRecorder()
	h.Rates(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
