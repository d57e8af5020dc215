package product_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/DevSheroz/glori82-admin/internal/currency"
	"github.com/DevSheroz/glori82-admin/internal/product"
)

type fakeStore struct {
	items  map[int64]product.Product
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[int64]product.Product{}, nextID: 1}
}

func (f *fakeStore) List(_ context.Context, _ product.ListFilter) ([]product.Product, int, error) {
	out := make([]product.Product, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (f *fakeStore) Get(_ context.Context, id int64) (product.Product, error) {
	p, ok := f.items[id]
	if !ok {
		return product.Product{}, errNotFound
	}
	return p, nil
}

func (f *fakeStore) Create(_ context.Context, p product.Product) (product.Product, error) {
	p.ID = f.nextID
	f.nextID++
	p.CreatedAt = time.Now()
	f.items[p.ID] = p
	return p, nil
}

func (f *fakeStore) Update(_ context.Context, p product.Product) (product.Product, error) {
	if _, ok := f.items[p.ID]; !ok {
		return product.Product{}, errNotFound
	}
	f.items[p.ID] = p
	return p, nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	delete(f.items, id)
	return nil
}

func (f *fakeStore) Brands(context.Context, *int64) ([]string, error) { return nil, nil }
func (f *fakeStore) LowStock(context.Context) ([]product.Product, error) {
	out := []product.Product{}
	for _, p := range f.items {
		if p.IsActive && p.StockQuantity <= p.ReorderLevel {
			out = append(out, p)
		}
	}
	return out, nil
}

var errNotFound = errors.New("not found")

type fixedRates struct{ snap currency.Snapshot }

func (f fixedRates) Rates(context.Context) (currency.Snapshot, error) { return f.snap, nil }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newService(store *fakeStore) *product.Service {
	return &product.Service{
		Store: store,
		FX: fixedRates{snap: currency.Snapshot{
			KRWToUSD: dec("0.00075"),
			USDToUZS: dec("12600"),
		}},
		Markup: dec("1.5"),
	}
}

func TestCreateAutofillsSellingPricesFromCost(t *testing.T) {
	svc := newService(newFakeStore())

	p, err := svc.Create(context.Background(), product.Input{
		Name:      "Vitamin C serum",
		CostPrice: decPtr("10000"),
	})
	require.NoError(t, err)
	require.NotNil(t, p.SellingPrice)
	// 10000 * 0.00075 * 1.5 = 11.25 USD; 11.25 * 12600 = 141750 UZS.
	require.True(t, p.SellingPrice.Equal(dec("11.25")), "usd: %s", p.SellingPrice)
	require.NotNil(t, p.SellingPriceUZS)
	require.True(t, p.SellingPriceUZS.Equal(dec("141750")), "uzs: %s", p.SellingPriceUZS)
}

func TestCreateKeepsExplicitSellingPrice(t *testing.T) {
	svc := newService(newFakeStore())

	p, err := svc.Create(context.Background(), product.Input{
		Name:         "Snail cream",
		CostPrice:    decPtr("10000"),
		SellingPrice: decPtr("9.99"),
	})
	require.NoError(t, err)
	require.True(t, p.SellingPrice.Equal(dec("9.99")))
}

func TestUpdateRecomputesOnlyWhenCostChanges(t *testing.T) {
	store := newFakeStore()
	svc := newService(store)

	created, err := svc.Create(context.Background(), product.Input{
		Name:      "Sheet mask",
		CostPrice: decPtr("10000"),
	})
	require.NoError(t, err)

	// Manual price edit with unchanged cost must survive.
	edited, err := svc.Update(context.Background(), created.ID, product.Input{
		Name:         "Sheet mask",
		CostPrice:    decPtr("10000"),
		SellingPrice: decPtr("20.00"),
	})
	require.NoError(t, err)
	require.True(t, edited.SellingPrice.Equal(dec("20.00")))

	again, err := svc.Update(context.Background(), created.ID, product.Input{
		Name:      "Sheet mask",
		CostPrice: decPtr("10000"),
	})
	require.NoError(t, err)
	require.True(t, again.SellingPrice.Equal(dec("20.00")), "unchanged cost must not overwrite manual price")

	// Changing the cost re-triggers the suggestion.
	recomputed, err := svc.Update(context.Background(), created.ID, product.Input{
		Name:      "Sheet mask",
		CostPrice: decPtr("20000"),
	})
	require.NoError(t, err)
	// 20000 * 0.00075 * 1.5 = 22.50
	require.True(t, recomputed.SellingPrice.Equal(dec("22.50")), "got %s", recomputed.SellingPrice)
}

func TestStockStatusDerivation(t *testing.T) {
	svc := newService(newFakeStore())

	out, err := svc.Create(context.Background(), product.Input{Name: "A", StockQuantity: 0})
	require.NoError(t, err)
	require.Equal(t, product.StockOut, out.StockStatus)

	low, err := svc.Create(context.Background(), product.Input{Name: "B", StockQuantity: 3, ReorderLevel: 5})
	require.NoError(t, err)
	require.Equal(t, product.StockLow, low.StockStatus)

	in, err := svc.Create(context.Background(), product.Input{Name: "C", StockQuantity: 50, ReorderLevel: 5})
	require.NoError(t, err)
	require.Equal(t, product.StockInStock, in.StockStatus)

	pre := product.StockPreOrder
	preOrder, err := svc.Create(context.Background(), product.Input{Name: "D", StockStatus: &pre})
	require.NoError(t, err)
	require.Equal(t, product.StockPreOrder, preOrder.StockStatus)
}

func TestCreateRequiresName(t *testing.T) {
	svc := newService(newFakeStore())
	_, err := svc.Create(context.Background(), product.Input{})
	require.Error(t, err)
}
