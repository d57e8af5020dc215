package payment

import "github.com/shopspring/decimal"

// Status enumerates the payment states an order can be in. Transitions happen
// only on explicit selection; nothing moves automatically when the balance
// reaches zero.
type Status string

const (
	StatusUnpaid     Status = "unpaid"
	StatusPaidCard   Status = "paid_card"
	StatusPaidCash   Status = "paid_cash"
	StatusPartial    Status = "partial"
	StatusPrepayment Status = "prepayment"
)

// ValidStatus reports whether the value is a known payment status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusUnpaid, StatusPaidCard, StatusPaidCash, StatusPartial, StatusPrepayment:
		return true
	}
	return false
}

// Method selects which slot a prepayment amount lands in.
type Method string

const (
	MethodCard Method = "card"
	MethodCash Method = "cash"
)

// Amounts holds the per-method paid amounts in UZS.
type Amounts struct {
	Card decimal.Decimal
	Cash decimal.Decimal
}

// Total returns the sum paid across both methods.
func (a Amounts) Total() decimal.Decimal {
	return a.Card.Add(a.Cash)
}

// Apply computes the amounts resulting from selecting a status against the
// order's destination-currency total. The full-payment statuses fill their
// slot with the rounded total; every other status zeroes both slots and
// leaves subsequent entry to the caller per the Editable contract.
func Apply(to Status, totalUZS decimal.Decimal) Amounts {
	switch to {
	case StatusPaidCard:
		return Amounts{Card: totalUZS.Round(0), Cash: decimal.Zero}
	case StatusPaidCash:
		return Amounts{Card: decimal.Zero, Cash: totalUZS.Round(0)}
	default:
		return Amounts{Card: decimal.Zero, Cash: decimal.Zero}
	}
}

// SwitchMethod moves the entered prepayment amount into the newly selected
// slot. The amount is preserved, never reset.
func SwitchMethod(a Amounts, to Method) Amounts {
	amount := a.Total()
	if to == MethodCash {
		return Amounts{Card: decimal.Zero, Cash: amount}
	}
	return Amounts{Card: amount, Cash: decimal.Zero}
}

// Unpaid returns the signed outstanding balance: total minus everything paid.
// Callers style a result of zero or less as settled and a positive result as
// outstanding.
func Unpaid(totalUZS decimal.Decimal, a Amounts) decimal.Decimal {
	return totalUZS.Sub(a.Total())
}

// FieldContract describes which payment inputs are live for a status.
type FieldContract struct {
	CardEditable   bool
	CashEditable   bool
	MethodSelector bool
}

// Editable returns the per-status field contract. Full-payment statuses show
// an auto-filled amount that is not separately editable; partial opens both
// slots; prepayment opens one shared amount behind a method selector.
func Editable(s Status) FieldContract {
	switch s {
	case StatusPartial:
		return FieldContract{CardEditable: true, CashEditable: true}
	case StatusPrepayment:
		return FieldContract{CardEditable: true, CashEditable: true, MethodSelector: true}
	default:
		return FieldContract{}
	}
}

// Normalize applies the transition table to client-supplied amounts so
// persisted rows always satisfy it regardless of what the request carried.
// Negative amounts clamp to zero before the table applies.
func Normalize(s Status, totalUZS decimal.Decimal, card, cash decimal.Decimal) Amounts {
	if card.Sign() < 0 {
		card = decimal.Zero
	}
	if cash.Sign() < 0 {
		cash = decimal.Zero
	}
	switch s {
	case StatusUnpaid:
		return Amounts{Card: decimal.Zero, Cash: decimal.Zero}
	case StatusPaidCard:
		return Amounts{Card: totalUZS.Round(0), Cash: decimal.Zero}
	case StatusPaidCash:
		return Amounts{Card: decimal.Zero, Cash: totalUZS.Round(0)}
	default:
		return Amounts{Card: card, Cash: cash}
	}
}
