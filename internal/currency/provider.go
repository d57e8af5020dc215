package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DevSheroz/glori82-admin/internal/resilience"
)

// Snapshot is one fetched exchange-rate pair. Zero rates mean "unknown".
type Snapshot struct {
	KRWToUSD  decimal.Decimal `json:"krw_to_usd"`
	USDToUZS  decimal.Decimal `json:"usd_to_uzs"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Valid reports whether both rates are usable.
func (s Snapshot) Valid() bool {
	return s.KRWToUSD.Sign() > 0 && s.USDToUZS.Sign() > 0
}

// Provider fetches a fresh snapshot from an upstream exchange-rate source.
type Provider interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// ERAPIProvider reads USD-based rates from the open.er-api.com service and
// derives KRW→USD as the inverse of the published USD→KRW rate.
type ERAPIProvider struct {
	BaseURL string
	Client  resilience.Doer
	Now     func() time.Time
}

type erapiResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// Fetch performs one upstream request. Retry and breaker behavior come from
// the injected client; the refresh schedule covers anything that still fails.
func (p *ERAPIProvider) Fetch(ctx context.Context) (Snapshot, error) {
	client := p.Client
	if client == nil {
		client = resilience.HTTPClient{Client: http.DefaultClient}
	}
	url := strings.TrimRight(p.BaseURL, "/") + "/latest/USD"
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("build fx request: %w", err)
	}
	resp, err := client.Do(ctx, req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("fetch fx rates: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("fx upstream returned %d", resp.StatusCode)
	}

	var body erapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Snapshot{}, fmt.Errorf("decode fx response: %w", err)
	}
	if body.Result != "success" {
		return Snapshot{}, fmt.Errorf("fx upstream result %q", body.Result)
	}
	krw := body.Rates["KRW"]
	uzs := body.Rates["UZS"]
	if krw <= 0 || uzs <= 0 {
		return Snapshot{}, errors.New("fx upstream missing KRW or UZS rate")
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return Snapshot{
		KRWToUSD:  decimal.NewFromInt(1).Div(decimal.NewFromFloat(krw)),
		USDToUZS:  decimal.NewFromFloat(uzs),
		FetchedAt: now().UTC(),
	}, nil
}
