package order

import (
	"github.com/shopspring/decimal"

	"github.com/DevSheroz/glori82-admin/internal/currency"
	"github.com/DevSheroz/glori82-admin/internal/payment"
	"github.com/DevSheroz/glori82-admin/internal/pricing"
)

// PricingBlock is the derived money view of an order, recomputed from the
// flattened items and the current FX snapshot on every read.
type PricingBlock struct {
	TotalWeightKg         decimal.Decimal `json:"total_weight_kg"`
	TotalCargoUSD         decimal.Decimal `json:"total_cargo_usd"`
	TotalCustomerCargoUSD decimal.Decimal `json:"total_customer_cargo_usd"`
	TotalSaleUSD          decimal.Decimal `json:"total_sale_usd"`
	ServiceFeeUSD         decimal.Decimal `json:"service_fee_usd"`
	TotalPriceUSD         decimal.Decimal `json:"total_price_usd"`
	TotalPriceUZS         decimal.Decimal `json:"total_price_uzs"`
	TotalPaid             decimal.Decimal `json:"total_paid"`
	UnpaidBalance         decimal.Decimal `json:"unpaid_balance"`
	AmountLocked          bool            `json:"amount_locked"`
}

// View is an order with its pricing block attached.
type View struct {
	Order
	Pricing PricingBlock `json:"pricing"`
}

// NewView derives the pricing block. A locked final_amount_uzs overrides the
// live UZS total; the unpaid balance keeps its sign so callers can style
// overpayment.
func NewView(o Order, snap currency.Snapshot) View {
	totals := computeTotals(o, snap)
	amounts := payment.Amounts{Card: o.PaidCard, Cash: o.PaidCash}

	effectiveUZS := totals.TotalPriceUZS
	locked := false
	if o.FinalAmountUZS != nil {
		effectiveUZS = *o.FinalAmountUZS
		locked = true
	}

	return View{
		Order: o,
		Pricing: PricingBlock{
			TotalWeightKg:         totals.WeightKg,
			TotalCargoUSD:         pricing.RoundUSD(totals.CargoUSD),
			TotalCustomerCargoUSD: pricing.RoundUSD(totals.CustomerCargoUSD),
			TotalSaleUSD:          pricing.RoundUSD(totals.SaleUSD),
			ServiceFeeUSD:         pricing.RoundUSD(totals.ServiceFeeUSD),
			TotalPriceUSD:         pricing.RoundUSD(totals.TotalPriceUSD),
			TotalPriceUZS:         effectiveUZS,
			TotalPaid:             amounts.Total(),
			UnpaidBalance:         payment.Unpaid(effectiveUZS, amounts),
			AmountLocked:          locked,
		},
	}
}
