package order

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/currency"
	"github.com/DevSheroz/glori82-admin/internal/customer"
	"github.com/DevSheroz/glori82-admin/internal/obs"
	"github.com/DevSheroz/glori82-admin/internal/payment"
	"github.com/DevSheroz/glori82-admin/internal/pricing"
	"github.com/DevSheroz/glori82-admin/internal/product"
)

// OrderStore is the persistence surface the service needs.
type OrderStore interface {
	List(ctx context.Context, f ListFilter) ([]Order, int, error)
	Get(ctx context.Context, id int64) (Order, error)
	Create(ctx context.Context, o Order) (Order, error)
	Update(ctx context.Context, o Order) (Order, error)
	Delete(ctx context.Context, id int64) error
}

// CustomerResolver resolves inline customer references on order submission.
type CustomerResolver interface {
	GetOrCreateByName(ctx context.Context, fullName string) (customer.Customer, error)
}

// ProductResolver looks up catalog products and auto-creates placeholder
// pre-order products for free-text item names.
type ProductResolver interface {
	Get(ctx context.Context, id int64) (product.Product, error)
	CreatePreOrder(ctx context.Context, name string) (product.Product, error)
}

// RateSource supplies the FX snapshot used for the derived pricing block.
type RateSource interface {
	Rates(ctx context.Context) (currency.Snapshot, error)
}

// Service applies order business rules: inline resolution, payment
// normalisation, and the completed-order amount lock.
type Service struct {
	Store     OrderStore
	Customers CustomerResolver
	Products  ProductResolver
	FX        RateSource
}

// ItemInput is one submitted order line. A product_id pulls name, price, and
// weight defaults from the catalog; a bare product_name auto-creates a
// pre-order product.
type ItemInput struct {
	ProductID   *int64           `json:"product_id"`
	ProductName string           `json:"product_name"`
	Quantity    int32            `json:"quantity" validate:"gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	WeightGrams *int32           `json:"weight_grams"`
}

// Input is the create/update payload.
type Input struct {
	CustomerID    *int64           `json:"customer_id"`
	CustomerName  string           `json:"customer_name"`
	Status        string           `json:"status"`
	PaymentStatus string           `json:"payment_status"`
	PaidCard      decimal.Decimal  `json:"paid_card"`
	PaidCash      decimal.Decimal  `json:"paid_cash"`
	ServiceFee    *decimal.Decimal `json:"service_fee"`
	Notes         *string          `json:"notes"`
	Items         []ItemInput      `json:"items" validate:"dive"`
}

// List returns a filtered order page as views.
func (s *Service) List(ctx context.Context, f ListFilter) ([]View, int, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PerPage <= 0 {
		f.PerPage = 20
	}
	orders, total, err := s.Store.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	snap := s.snapshot(ctx)
	views := make([]View, len(orders))
	for i, o := range orders {
		views[i] = NewView(o, snap)
	}
	return views, total, nil
}

// Get fetches one order as a view.
func (s *Service) Get(ctx context.Context, id int64) (View, error) {
	o, err := s.Store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return NewView(o, s.snapshot(ctx)), nil
}

// Create resolves the payload, normalises payment fields against the derived
// total, and persists the order.
func (s *Service) Create(ctx context.Context, in Input) (View, error) {
	o, snap, err := s.resolve(ctx, Order{Status: StatusPending}, in)
	if err != nil {
		countOrder("create", "error")
		return View{}, err
	}
	created, err := s.Store.Create(ctx, o)
	if err != nil {
		countOrder("create", "error")
		return View{}, err
	}
	countOrder("create", "ok")
	return NewView(created, snap), nil
}

// Update resolves the payload against the stored order. When the order
// completes fully paid the live UZS total is locked into final_amount_uzs.
func (s *Service) Update(ctx context.Context, id int64, in Input) (View, error) {
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	o, snap, err := s.resolve(ctx, existing, in)
	if err != nil {
		countOrder("update", "error")
		return View{}, err
	}
	o.ID = existing.ID
	o.FinalAmountUZS = existing.FinalAmountUZS
	if o.FinalAmountUZS == nil && o.Status == StatusCompleted {
		total := liveTotalUZS(o, snap)
		if total.Sign() > 0 && payment.Unpaid(total, payment.Amounts{Card: o.PaidCard, Cash: o.PaidCash}).Sign() <= 0 {
			o.FinalAmountUZS = &total
		}
	}
	updated, err := s.Store.Update(ctx, o)
	if err != nil {
		countOrder("update", "error")
		return View{}, err
	}
	countOrder("update", "ok")
	return NewView(updated, snap), nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		countOrder("delete", "error")
		return err
	}
	countOrder("delete", "ok")
	return nil
}

// resolve validates the payload, resolves inline customers and products, and
// normalises the payment fields through the reconciliation table.
func (s *Service) resolve(ctx context.Context, base Order, in Input) (Order, currency.Snapshot, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Order{}, currency.Snapshot{}, err
	}
	if len(in.Items) == 0 {
		return Order{}, currency.Snapshot{}, common.NewAppError(
			"VALIDATION_ERROR", "order needs at least one item", http.StatusBadRequest, nil)
	}
	status := in.Status
	if status == "" {
		status = base.Status
	}
	if !ValidStatus(status) {
		return Order{}, currency.Snapshot{}, common.NewAppError(
			"VALIDATION_ERROR", "unknown order status", http.StatusBadRequest, nil)
	}
	payStatus := payment.Status(in.PaymentStatus)
	if in.PaymentStatus == "" {
		payStatus = payment.StatusUnpaid
	}
	if !payment.ValidStatus(payStatus) {
		return Order{}, currency.Snapshot{}, common.NewAppError(
			"VALIDATION_ERROR", "unknown payment status", http.StatusBadRequest, nil)
	}

	o := base
	o.Status = status
	o.Notes = in.Notes
	o.ServiceFee = pricing.DefaultServiceFee
	if in.ServiceFee != nil && in.ServiceFee.Sign() >= 0 {
		o.ServiceFee = *in.ServiceFee
	}

	if in.CustomerID != nil {
		o.CustomerID = in.CustomerID
	} else if strings.TrimSpace(in.CustomerName) != "" {
		c, err := s.Customers.GetOrCreateByName(ctx, in.CustomerName)
		if err != nil {
			return Order{}, currency.Snapshot{}, err
		}
		o.CustomerID = &c.ID
	}
	if o.CustomerID == nil {
		return Order{}, currency.Snapshot{}, common.NewAppError(
			"VALIDATION_ERROR", "customer_id or customer_name is required", http.StatusBadRequest, nil)
	}

	items, err := s.resolveItems(ctx, in.Items)
	if err != nil {
		return Order{}, currency.Snapshot{}, err
	}
	o.Items = items

	snap := s.snapshot(ctx)
	total := liveTotalUZS(o, snap)
	amounts := payment.Normalize(payStatus, total, in.PaidCard, in.PaidCash)
	o.PaymentStatus = payStatus
	o.PaidCard = amounts.Card
	o.PaidCash = amounts.Cash
	return o, snap, nil
}

func (s *Service) resolveItems(ctx context.Context, inputs []ItemInput) ([]Item, error) {
	items := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		it := Item{Quantity: in.Quantity, WeightGrams: in.WeightGrams}
		switch {
		case in.ProductID != nil:
			p, err := s.Products.Get(ctx, *in.ProductID)
			if err != nil {
				return nil, err
			}
			it.ProductID = &p.ID
			it.ProductName = p.Name
			if in.ProductName != "" {
				it.ProductName = in.ProductName
			}
			if in.UnitPrice == nil && p.SellingPrice != nil {
				it.UnitPrice = *p.SellingPrice
			}
			if in.WeightGrams == nil {
				it.WeightGrams = p.PackagedWeightGrams
			}
		case strings.TrimSpace(in.ProductName) != "":
			p, err := s.Products.CreatePreOrder(ctx, strings.TrimSpace(in.ProductName))
			if err != nil {
				return nil, err
			}
			it.ProductID = &p.ID
			it.ProductName = p.Name
		default:
			return nil, common.NewAppError("VALIDATION_ERROR",
				"each item needs a product_id or product_name", http.StatusBadRequest, nil)
		}
		if in.UnitPrice != nil {
			if in.UnitPrice.Sign() < 0 {
				return nil, common.NewAppError("VALIDATION_ERROR",
					"unit_price must be non-negative", http.StatusBadRequest, nil)
			}
			it.UnitPrice = *in.UnitPrice
		}
		items = append(items, it)
	}
	return items, nil
}

// snapshot returns the current FX snapshot, degrading to zero rates when the
// source is unavailable.
func (s *Service) snapshot(ctx context.Context) currency.Snapshot {
	if s.FX == nil {
		return currency.Snapshot{}
	}
	snap, err := s.FX.Rates(ctx)
	if err != nil {
		return currency.Snapshot{}
	}
	return snap
}

func liveTotalUZS(o Order, snap currency.Snapshot) decimal.Decimal {
	totals := computeTotals(o, snap)
	return totals.TotalPriceUZS
}

func computeTotals(o Order, snap currency.Snapshot) pricing.Totals {
	lines := make([]pricing.Line, 0, len(o.Items))
	for _, it := range o.Items {
		line := pricing.Line{
			Quantity:     int(it.Quantity),
			SalePriceUSD: it.UnitPrice,
		}
		if it.WeightGrams != nil {
			line.WeightGrams = decimal.NewFromInt(int64(*it.WeightGrams))
		}
		lines = append(lines, line)
	}
	rates := pricing.Rates{KRWToUSD: snap.KRWToUSD, USDToUZS: snap.USDToUZS}
	return pricing.ComputeTotals(lines, o.ServiceFee, rates)
}

func countOrder(op, result string) {
	if obs.OrdersTotal != nil {
		obs.OrdersTotal.WithLabelValues(op, result).Inc()
	}
}
