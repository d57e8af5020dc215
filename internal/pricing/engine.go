package pricing

import "github.com/shopspring/decimal"

// Cargo rates are charged per kilogram of packaged weight. The business pays
// the base rate to the carrier and bills the customer the marked-up rate.
const (
	CargoRatePerKg         = 12
	CustomerCargoRatePerKg = 13
)

var (
	// DefaultServiceFee is the flat per-order charge in USD.
	DefaultServiceFee = decimal.RequireFromString("3.00")
	// DefaultMarkup is applied when suggesting a USD sale price from a KRW cost.
	DefaultMarkup = decimal.RequireFromString("1.5")

	cargoRate         = decimal.NewFromInt(CargoRatePerKg)
	customerCargoRate = decimal.NewFromInt(CustomerCargoRatePerKg)
	gramsPerKg        = decimal.NewFromInt(1000)
)

// Rates is an immutable exchange-rate snapshot for one computation.
// A zero rate means "unknown", never "free".
type Rates struct {
	KRWToUSD decimal.Decimal
	USDToUZS decimal.Decimal
}

// Line is one product entry within an order.
type Line struct {
	Quantity     int
	CostKRW      decimal.Decimal
	SalePriceUSD decimal.Decimal
	WeightGrams  decimal.Decimal
}

// LineDerived holds the computed per-line components, carried in full precision.
type LineDerived struct {
	SaleTotalUSD     decimal.Decimal
	WeightKg         decimal.Decimal
	CargoUSD         decimal.Decimal
	CustomerCargoUSD decimal.Decimal
}

// Totals aggregates the derived components of a whole order.
type Totals struct {
	WeightKg         decimal.Decimal
	CargoUSD         decimal.Decimal
	CustomerCargoUSD decimal.Decimal
	SaleUSD          decimal.Decimal
	ServiceFeeUSD    decimal.Decimal
	TotalPriceUSD    decimal.Decimal
	TotalPriceUZS    decimal.Decimal
}

// ComputeLine derives the sale total and weight-based cargo fees for one line.
// Absent or zero weight yields zero weight-derived fields, not an error.
func ComputeLine(l Line) LineDerived {
	qty := decimal.NewFromInt(int64(l.Quantity))
	d := LineDerived{
		SaleTotalUSD:     l.SalePriceUSD.Mul(qty),
		WeightKg:         decimal.Zero,
		CargoUSD:         decimal.Zero,
		CustomerCargoUSD: decimal.Zero,
	}
	if l.WeightGrams.Sign() > 0 {
		d.WeightKg = l.WeightGrams.Div(gramsPerKg).Mul(qty)
		d.CargoUSD = d.WeightKg.Mul(cargoRate)
		d.CustomerCargoUSD = d.WeightKg.Mul(customerCargoRate)
	}
	return d
}

// ComputeTotals sums line-derived values and applies the flat service fee.
// Intermediates stay in full precision; TotalPriceUZS is rounded to whole
// units and reported as zero when the USD→UZS rate is unknown.
func ComputeTotals(lines []Line, serviceFeeUSD decimal.Decimal, r Rates) Totals {
	t := Totals{
		WeightKg:         decimal.Zero,
		CargoUSD:         decimal.Zero,
		CustomerCargoUSD: decimal.Zero,
		SaleUSD:          decimal.Zero,
		ServiceFeeUSD:    serviceFeeUSD,
		TotalPriceUZS:    decimal.Zero,
	}
	for _, l := range lines {
		d := ComputeLine(l)
		t.WeightKg = t.WeightKg.Add(d.WeightKg)
		t.CargoUSD = t.CargoUSD.Add(d.CargoUSD)
		t.CustomerCargoUSD = t.CustomerCargoUSD.Add(d.CustomerCargoUSD)
		t.SaleUSD = t.SaleUSD.Add(d.SaleTotalUSD)
	}
	t.TotalPriceUSD = t.SaleUSD.Add(t.CustomerCargoUSD).Add(serviceFeeUSD)
	if r.USDToUZS.Sign() > 0 {
		t.TotalPriceUZS = RoundUZS(t.TotalPriceUSD.Mul(r.USDToUZS))
	}
	return t
}

// SuggestSalePriceUSD proposes a USD sale price from a KRW cost. The result
// is a suggestion only; a manually edited sale price must not be overwritten
// unless the cost itself changes. Returns zero when the KRW→USD rate is unknown.
func SuggestSalePriceUSD(costKRW decimal.Decimal, r Rates, markup decimal.Decimal) decimal.Decimal {
	if r.KRWToUSD.Sign() <= 0 || costKRW.Sign() <= 0 {
		return decimal.Zero
	}
	if markup.Sign() <= 0 {
		markup = DefaultMarkup
	}
	return RoundUSD(costKRW.Mul(r.KRWToUSD).Mul(markup))
}

// RoundUSD rounds a USD amount to two decimal places for display or persistence.
func RoundUSD(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// RoundUZS rounds a UZS amount to the nearest whole unit; the currency has no
// usable fractional minor unit.
func RoundUZS(d decimal.Decimal) decimal.Decimal { return d.Round(0) }
