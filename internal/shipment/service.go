package shipment

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/currency"
	"github.com/DevSheroz/glori82-admin/internal/obs"
	"github.com/DevSheroz/glori82-admin/internal/order"
	"github.com/DevSheroz/glori82-admin/internal/pricing"
)

// orderStatusCascade maps a shipment status onto the order status stamped on
// member orders. Statuses absent from the map leave orders untouched.
var orderStatusCascade = map[string]string{
	StatusInTransit: order.StatusShipped,
	StatusDelivered: order.StatusCompleted,
}

// ShipmentStore is the persistence surface the service needs.
type ShipmentStore interface {
	List(ctx context.Context, status string, page, perPage int) ([]Shipment, int, error)
	Get(ctx context.Context, id int64) (Shipment, error)
	Create(ctx context.Context, shippingNumber, notes *string) (Shipment, error)
	UpdateStatus(ctx context.Context, id int64, status string, note *string, cascadeOrderStatus string) (Shipment, error)
	AttachOrder(ctx context.Context, shipmentID, orderID int64) error
	DetachOrder(ctx context.Context, shipmentID, orderID int64) error
	Delete(ctx context.Context, id int64) error
	MemberOrders(ctx context.Context, shipmentID int64) ([]MemberOrder, error)
	History(ctx context.Context, shipmentID int64) ([]HistoryEntry, error)
}

// RateSource supplies the FX snapshot for the cargo cost aggregates.
type RateSource interface {
	Rates(ctx context.Context) (currency.Snapshot, error)
}

// Service coordinates consolidated shipments over their member orders.
type Service struct {
	Store ShipmentStore
	FX    RateSource
}

// Aggregates is the derived cargo summary of one shipment.
type Aggregates struct {
	TotalWeightKg decimal.Decimal `json:"total_weight_kg"`
	CargoUSD      decimal.Decimal `json:"cargo_usd"`
	CargoUZS      decimal.Decimal `json:"cargo_uzs"`
	OrderCount    int             `json:"order_count"`
}

// View is a shipment with members, history, and derived aggregates.
type View struct {
	Shipment
	Orders     []MemberOrder  `json:"orders"`
	History    []HistoryEntry `json:"history"`
	Aggregates Aggregates     `json:"aggregates"`
}

// List returns a page of shipments.
func (s *Service) List(ctx context.Context, status string, page, perPage int) ([]Shipment, int, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, common.NewAppError("VALIDATION_ERROR", "unknown shipment status", http.StatusBadRequest, nil)
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	return s.Store.List(ctx, status, page, perPage)
}

// Get fetches one shipment with members, history, and aggregates.
func (s *Service) Get(ctx context.Context, id int64) (View, error) {
	sh, err := s.Store.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, sh)
}

// Create opens a new consolidated shipment.
func (s *Service) Create(ctx context.Context, shippingNumber, notes *string) (View, error) {
	sh, err := s.Store.Create(ctx, shippingNumber, notes)
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, sh)
}

// UpdateStatus moves the shipment and cascades the mapped status to its orders.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string, note *string) (View, error) {
	if !ValidStatus(status) {
		return View{}, common.NewAppError("VALIDATION_ERROR", "unknown shipment status", http.StatusBadRequest, nil)
	}
	sh, err := s.Store.UpdateStatus(ctx, id, status, note, orderStatusCascade[status])
	if err != nil {
		return View{}, err
	}
	if obs.ShipmentStatusTotal != nil {
		obs.ShipmentStatusTotal.WithLabelValues(status).Inc()
	}
	return s.view(ctx, sh)
}

// AttachOrder adds an order to the shipment.
func (s *Service) AttachOrder(ctx context.Context, shipmentID, orderID int64) (View, error) {
	if err := s.Store.AttachOrder(ctx, shipmentID, orderID); err != nil {
		return View{}, err
	}
	return s.Get(ctx, shipmentID)
}

// DetachOrder removes an order from the shipment.
func (s *Service) DetachOrder(ctx context.Context, shipmentID, orderID int64) (View, error) {
	if err := s.Store.DetachOrder(ctx, shipmentID, orderID); err != nil {
		return View{}, err
	}
	return s.Get(ctx, shipmentID)
}

// Delete removes a shipment, releasing its orders.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.Store.Delete(ctx, id)
}

func (s *Service) view(ctx context.Context, sh Shipment) (View, error) {
	members, err := s.Store.MemberOrders(ctx, sh.ID)
	if err != nil {
		return View{}, err
	}
	history, err := s.Store.History(ctx, sh.ID)
	if err != nil {
		return View{}, err
	}
	return View{
		Shipment:   sh,
		Orders:     members,
		History:    history,
		Aggregates: s.aggregates(ctx, members),
	}, nil
}

// aggregates sums member weights and prices the cargo at the carrier rate,
// converting to UZS when a rate is known.
func (s *Service) aggregates(ctx context.Context, members []MemberOrder) Aggregates {
	var grams int64
	for _, m := range members {
		grams += m.TotalWeightGrams
	}
	weightKg := decimal.NewFromInt(grams).Div(decimal.NewFromInt(1000))
	cargoUSD := weightKg.Mul(decimal.NewFromInt(pricing.CargoRatePerKg))

	agg := Aggregates{
		TotalWeightKg: weightKg,
		CargoUSD:      pricing.RoundUSD(cargoUSD),
		CargoUZS:      decimal.Zero,
		OrderCount:    len(members),
	}
	if s.FX != nil {
		if snap, err := s.FX.Rates(ctx); err == nil && snap.USDToUZS.Sign() > 0 {
			agg.CargoUZS = pricing.RoundUZS(cargoUSD.Mul(snap.USDToUZS))
		}
	}
	return agg
}
