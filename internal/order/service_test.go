package order_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/currency"
	"github.com/DevSheroz/glori82-admin/internal/customer"
	"github.com/DevSheroz/glori82-admin/internal/order"
	"github.com/DevSheroz/glori82-admin/internal/payment"
	"github.com/DevSheroz/glori82-admin/internal/product"
)

type fakeOrderStore struct {
	orders map[int64]order.Order
	nextID int64
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[int64]order.Order{}, nextID: 1}
}

func (f *fakeOrderStore) List(_ context.Context, _ order.ListFilter) ([]order.Order, int, error) {
	out := []order.Order{}
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (f *fakeOrderStore) Get(_ context.Context, id int64) (order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return order.Order{}, common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, nil)
	}
	return o, nil
}

func (f *fakeOrderStore) Create(_ context.Context, o order.Order) (order.Order, error) {
	o.ID = f.nextID
	f.nextID++
	o.OrderNumber = "ORD-0001"
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrderStore) Update(_ context.Context, o order.Order) (order.Order, error) {
	if _, ok := f.orders[o.ID]; !ok {
		return order.Order{}, common.NewAppError("NOT_FOUND", "order not found", http.StatusNotFound, nil)
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrderStore) Delete(_ context.Context, id int64) error {
	delete(f.orders, id)
	return nil
}

type fakeCustomers struct {
	created []string
}

func (f *fakeCustomers) GetOrCreateByName(_ context.Context, name string) (customer.Customer, error) {
	f.created = append(f.created, name)
	return customer.Customer{ID: int64(100 + len(f.created)), FullName: name, IsActive: true}, nil
}

type fakeProducts struct {
	products   map[int64]product.Product
	preOrdered []string
}

func (f *fakeProducts) Get(_ context.Context, id int64) (product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return product.Product{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, nil)
	}
	return p, nil
}

func (f *fakeProducts) CreatePreOrder(_ context.Context, name string) (product.Product, error) {
	f.preOrdered = append(f.preOrdered, name)
	return product.Product{ID: int64(900 + len(f.preOrdered)), Name: name, StockStatus: product.StockPreOrder}, nil
}

type fixedRates struct{ snap currency.Snapshot }

func (f fixedRates) Rates(context.Context) (currency.Snapshot, error) { return f.snap, nil }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func i32(v int32) *int32 { return &v }

func newService(store *fakeOrderStore, products *fakeProducts) (*order.Service, *fakeCustomers) {
	customers := &fakeCustomers{}
	return &order.Service{
		Store:     store,
		Customers: customers,
		Products:  products,
		FX:        fixedRates{snap: currency.Snapshot{KRWToUSD: dec("0.00075"), USDToUZS: dec("12600")}},
	}, customers
}

func catalog() *fakeProducts {
	return &fakeProducts{products: map[int64]product.Product{
		7: {
			ID:                  7,
			Name:                "Collagen cream",
			SellingPrice:        decPtr("10.00"),
			PackagedWeightGrams: i32(500),
			StockStatus:         product.StockInStock,
		},
	}}
}

func TestCreateDerivesWorkedScenarioTotals(t *testing.T) {
	svc, _ := newService(newFakeOrderStore(), catalog())

	// 2 x $10 x 500 g + $3 fee at 12600 UZS/USD.
	v, err := svc.Create(context.Background(), order.Input{
		CustomerName: "Madina",
		Items:        []order.ItemInput{{ProductID: ptr(int64(7)), Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, "ORD-0001", v.OrderNumber)
	require.True(t, v.Pricing.TotalWeightKg.Equal(dec("1")), "weight: %s", v.Pricing.TotalWeightKg)
	require.True(t, v.Pricing.TotalCargoUSD.Equal(dec("12.00")))
	require.True(t, v.Pricing.TotalCustomerCargoUSD.Equal(dec("13.00")))
	require.True(t, v.Pricing.TotalPriceUSD.Equal(dec("36.00")))
	require.True(t, v.Pricing.TotalPriceUZS.Equal(dec("453600")))
	require.True(t, v.Pricing.UnpaidBalance.Equal(dec("453600")))
}

func TestCreateResolvesInlineCustomerAndProductDefaults(t *testing.T) {
	products := catalog()
	svc, customers := newService(newFakeOrderStore(), products)

	v, err := svc.Create(context.Background(), order.Input{
		CustomerName: "Umida",
		Items:        []order.ItemInput{{ProductID: ptr(int64(7)), Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Umida"}, customers.created)
	require.NotNil(t, v.CustomerID)

	require.Len(t, v.Items, 1)
	require.Equal(t, "Collagen cream", v.Items[0].ProductName)
	require.True(t, v.Items[0].UnitPrice.Equal(dec("10.00")), "price defaults from catalog")
	require.NotNil(t, v.Items[0].WeightGrams)
	require.Equal(t, int32(500), *v.Items[0].WeightGrams, "weight defaults from catalog")
}

func TestCreateAutoCreatesPreOrderProduct(t *testing.T) {
	products := catalog()
	svc, _ := newService(newFakeOrderStore(), products)

	v, err := svc.Create(context.Background(), order.Input{
		CustomerName: "Nilufar",
		Items: []order.ItemInput{{
			ProductName: "Limited edition toner",
			Quantity:    1,
			UnitPrice:   decPtr("15.00"),
		}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Limited edition toner"}, products.preOrdered)
	require.NotNil(t, v.Items[0].ProductID)
	require.True(t, v.Items[0].UnitPrice.Equal(dec("15.00")))
}

func TestCreateNormalizesPaidCard(t *testing.T) {
	svc, _ := newService(newFakeOrderStore(), catalog())

	v, err := svc.Create(context.Background(), order.Input{
		CustomerName:  "Madina",
		PaymentStatus: string(payment.StatusPaidCard),
		// Client-sent amounts are ignored; the table fills card with the total.
		PaidCash: dec("999"),
		Items:    []order.ItemInput{{ProductID: ptr(int64(7)), Quantity: 2}},
	})
	require.NoError(t, err)
	require.True(t, v.PaidCard.Equal(dec("453600")), "card: %s", v.PaidCard)
	require.True(t, v.PaidCash.IsZero())
	require.True(t, v.Pricing.UnpaidBalance.IsZero())
}

func TestUpdateLocksFinalAmountWhenCompletedFullyPaid(t *testing.T) {
	store := newFakeOrderStore()
	svc, _ := newService(store, catalog())

	created, err := svc.Create(context.Background(), order.Input{
		CustomerName: "Madina",
		Items:        []order.ItemInput{{ProductID: ptr(int64(7)), Quantity: 2}},
	})
	require.NoError(t, err)
	require.Nil(t, created.FinalAmountUZS)

	updated, err := svc.Update(context.Background(), created.ID, order.Input{
		CustomerID:    created.CustomerID,
		Status:        order.StatusCompleted,
		PaymentStatus: string(payment.StatusPaidCash),
		Items:         []order.ItemInput{{ProductID: ptr(int64(7)), Quantity: 2}},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.FinalAmountUZS)
	require.True(t, updated.FinalAmountUZS.Equal(dec("453600")))

	// The locked amount overrides the live conversion even if rates move.
	svc.FX = fixedRates{snap: currency.Snapshot{KRWToUSD: dec("0.00075"), USDToUZS: dec("99999")}}
	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, got.Pricing.TotalPriceUZS.Equal(dec("453600")))
	require.True(t, got.Pricing.AmountLocked)
}

func TestCreateWithUnknownRateReportsZeroUZS(t *testing.T) {
	svc, _ := newService(newFakeOrderStore(), catalog())
	svc.FX = fixedRates{snap: currency.Snapshot{}}

	v, err := svc.Create(context.Background(), order.Input{
		CustomerName:  "Madina",
		PaymentStatus: string(payment.StatusPaidCard),
		Items:         []order.ItemInput{{ProductID: ptr(int64(7)), Quantity: 2}},
	})
	require.NoError(t, err)
	require.True(t, v.Pricing.TotalPriceUZS.IsZero(), "unknown rate reports zero, not free")
	require.True(t, v.Pricing.TotalPriceUSD.Equal(dec("36.00")))
	require.True(t, v.PaidCard.IsZero(), "nothing to fill from an unknown total")
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	svc, _ := newService(newFakeOrderStore(), catalog())

	_, err := svc.Create(context.Background(), order.Input{CustomerName: "Madina"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestCreateRejectsUnknownPaymentStatus(t *testing.T) {
	svc, _ := newService(newFakeOrderStore(), catalog())

	_, err := svc.Create(context.Background(), order.Input{
		CustomerName:  "Madina",
		PaymentStatus: "store_credit",
		Items:         []order.ItemInput{{ProductID: ptr(int64(7)), Quantity: 1}},
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func ptr[T any](v T) *T { return &v }
