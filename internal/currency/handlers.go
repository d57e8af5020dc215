package currency

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/pricing"
)

// Handler exposes the exchange-rate endpoint.
type Handler struct {
	Service *Service
	Markup  decimal.Decimal
}

type ratesResponse struct {
	KRWToUSD  decimal.Decimal `json:"krw_to_usd"`
	USDToUZS  decimal.Decimal `json:"usd_to_uzs"`
	FetchedAt *time.Time      `json:"fetched_at,omitempty"`
	Preview   *pricePreview   `json:"preview,omitempty"`
}

type pricePreview struct {
	CostKRW      decimal.Decimal `json:"cost_krw"`
	SalePriceUSD decimal.Decimal `json:"sale_price_usd"`
	SalePriceUZS decimal.Decimal `json:"sale_price_uzs"`
}

// Rates returns the current snapshot plus an optional sale-price preview for
// a given KRW cost.
func (h Handler) Rates(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.Rates(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}

	resp := ratesResponse{KRWToUSD: snap.KRWToUSD, USDToUZS: snap.USDToUZS}
	if !snap.FetchedAt.IsZero() {
		t := snap.FetchedAt
		resp.FetchedAt = &t
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("preview_cost_krw")); raw != "" {
		cost, err := decimal.NewFromString(raw)
		if err != nil || cost.Sign() < 0 {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "preview_cost_krw must be a non-negative number", nil)
			return
		}
		rates := pricing.Rates{KRWToUSD: snap.KRWToUSD, USDToUZS: snap.USDToUZS}
		usd := pricing.SuggestSalePriceUSD(cost, rates, h.Markup)
		resp.Preview = &pricePreview{
			CostKRW:      cost,
			SalePriceUSD: usd,
			SalePriceUZS: pricing.RoundUZS(usd.Mul(snap.USDToUZS)),
		}
	}

	common.JSON(w, http.StatusOK, map[string]any{"data": resp})
}
