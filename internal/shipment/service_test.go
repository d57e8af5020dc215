package shipment_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/currency"
	"github.com/DevSheroz/glori82-admin/internal/order"
	"github.com/DevSheroz/glori82-admin/internal/shipment"
)

type fakeStore struct {
	shipments   map[int64]shipment.Shipment
	members     map[int64][]shipment.MemberOrder
	history     map[int64][]shipment.HistoryEntry
	orderStatus map[int64]string
	nextID      int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		shipments:   map[int64]shipment.Shipment{},
		members:     map[int64][]shipment.MemberOrder{},
		history:     map[int64][]shipment.HistoryEntry{},
		orderStatus: map[int64]string{},
		nextID:      1,
	}
}

func (f *fakeStore) List(_ context.Context, status string, _, _ int) ([]shipment.Shipment, int, error) {
	out := []shipment.Shipment{}
	for _, sh := range f.shipments {
		if status == "" || sh.Status == status {
			out = append(out, sh)
		}
	}
	return out, len(out), nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (shipment.Shipment, error) {
	sh, ok := f.shipments[id]
	if !ok {
		return shipment.Shipment{}, common.NewAppError("NOT_FOUND", "shipment not found", http.StatusNotFound, nil)
	}
	sh.OrderCount = len(f.members[id])
	return sh, nil
}

func (f *fakeStore) Create(_ context.Context, shippingNumber, notes *string) (shipment.Shipment, error) {
	sh := shipment.Shipment{
		ID:             f.nextID,
		ShipmentNumber: fmt.Sprintf("SH-%04d", f.nextID),
		Status:         shipment.StatusPending,
		ShippingNumber: shippingNumber,
		Notes:          notes,
	}
	f.nextID++
	f.shipments[sh.ID] = sh
	f.history[sh.ID] = []shipment.HistoryEntry{{ShipmentID: sh.ID, Status: shipment.StatusPending}}
	return sh, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id int64, status string, note *string, cascade string) (shipment.Shipment, error) {
	sh, ok := f.shipments[id]
	if !ok {
		return shipment.Shipment{}, common.NewAppError("NOT_FOUND", "shipment not found", http.StatusNotFound, nil)
	}
	sh.Status = status
	f.shipments[id] = sh
	f.history[id] = append([]shipment.HistoryEntry{{ShipmentID: id, Status: status, Note: note}}, f.history[id]...)
	if cascade != "" {
		for _, m := range f.members[id] {
			f.orderStatus[m.ID] = cascade
		}
	}
	return sh, nil
}

func (f *fakeStore) AttachOrder(_ context.Context, shipmentID, orderID int64) error {
	for _, members := range f.members {
		for _, m := range members {
			if m.ID == orderID {
				return common.NewAppError("CONFLICT", "order already belongs to a shipment", http.StatusConflict, nil)
			}
		}
	}
	f.members[shipmentID] = append(f.members[shipmentID], shipment.MemberOrder{
		ID:               orderID,
		OrderNumber:      fmt.Sprintf("ORD-%04d", orderID),
		Status:           order.StatusPending,
		TotalWeightGrams: 500,
	})
	return nil
}

func (f *fakeStore) DetachOrder(_ context.Context, shipmentID, orderID int64) error {
	members := f.members[shipmentID]
	for i, m := range members {
		if m.ID == orderID {
			f.members[shipmentID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return common.NewAppError("NOT_FOUND", "order is not in this shipment", http.StatusNotFound, nil)
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	delete(f.shipments, id)
	delete(f.members, id)
	return nil
}

func (f *fakeStore) MemberOrders(_ context.Context, shipmentID int64) ([]shipment.MemberOrder, error) {
	return append([]shipment.MemberOrder{}, f.members[shipmentID]...), nil
}

func (f *fakeStore) History(_ context.Context, shipmentID int64) ([]shipment.HistoryEntry, error) {
	return append([]shipment.HistoryEntry{}, f.history[shipmentID]...), nil
}

type fixedRates struct{ snap currency.Snapshot }

func (f fixedRates) Rates(context.Context) (currency.Snapshot, error) { return f.snap, nil }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService(store *fakeStore) *shipment.Service {
	return &shipment.Service{
		Store: store,
		FX:    fixedRates{snap: currency.Snapshot{KRWToUSD: dec("0.00075"), USDToUZS: dec("12600")}},
	}
}

func TestCreateAssignsNumberAndLogsHistory(t *testing.T) {
	svc := newService(newFakeStore())

	v, err := svc.Create(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, "SH-0001", v.ShipmentNumber)
	require.Equal(t, shipment.StatusPending, v.Status)
	require.Len(t, v.History, 1)
}

func TestAggregatesPriceCargoAtCarrierRate(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	v, err := svc.Create(context.Background(), nil, nil)
	require.NoError(t, err)

	// Two member orders at 500 g each = 1 kg.
	for orderID := int64(1); orderID <= 2; orderID++ {
		v, err = svc.AttachOrder(context.Background(), v.ID, orderID)
		require.NoError(t, err)
	}
	require.Equal(t, 2, v.Aggregates.OrderCount)
	require.True(t, v.Aggregates.TotalWeightKg.Equal(dec("1")), "weight: %s", v.Aggregates.TotalWeightKg)
	// 1 kg x 12 USD/kg; 12 x 12600 UZS.
	require.True(t, v.Aggregates.CargoUSD.Equal(dec("12.00")))
	require.True(t, v.Aggregates.CargoUZS.Equal(dec("151200")))
}

func TestAttachRejectsOrderAlreadyShipped(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	first, err := svc.Create(context.Background(), nil, nil)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), nil, nil)
	require.NoError(t, err)

	_, err = svc.AttachOrder(context.Background(), first.ID, 1)
	require.NoError(t, err)

	_, err = svc.AttachOrder(context.Background(), second.ID, 1)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "CONFLICT", appErr.Code)
}

func TestStatusCascadesToMemberOrders(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	v, err := svc.Create(context.Background(), nil, nil)
	require.NoError(t, err)
	_, err = svc.AttachOrder(context.Background(), v.ID, 1)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), v.ID, shipment.StatusInTransit, nil)
	require.NoError(t, err)
	require.Equal(t, order.StatusShipped, store.orderStatus[1])

	_, err = svc.UpdateStatus(context.Background(), v.ID, shipment.StatusDelivered, nil)
	require.NoError(t, err)
	require.Equal(t, order.StatusCompleted, store.orderStatus[1])

	// Customs movement leaves order status alone.
	delete(store.orderStatus, 1)
	_, err = svc.UpdateStatus(context.Background(), v.ID, shipment.StatusCustoms, nil)
	require.NoError(t, err)
	require.Empty(t, store.orderStatus[1])
}

func TestUpdateStatusRejectsUnknown(t *testing.T) {
	svc := newService(newFakeStore())

	v, err := svc.Create(context.Background(), nil, nil)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), v.ID, "teleported", nil)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestDetachRestoresHistoryIntegrity(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	v, err := svc.Create(context.Background(), nil, nil)
	require.NoError(t, err)
	_, err = svc.AttachOrder(context.Background(), v.ID, 7)
	require.NoError(t, err)

	detached, err := svc.DetachOrder(context.Background(), v.ID, 7)
	require.NoError(t, err)
	require.Empty(t, detached.Orders)

	_, err = svc.DetachOrder(context.Background(), v.ID, 7)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}
