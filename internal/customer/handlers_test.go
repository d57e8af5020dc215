package customer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/customer"
)

type memStore struct {
	items  map[int64]customer.Customer
	nextID int64
}

func newMemStore() *memStore {
	return &memStore{items: map[int64]customer.Customer{}, nextID: 1}
}

func (m *memStore) List(_ context.Context, f customer.ListFilter) ([]customer.Customer, int, error) {
	out := []customer.Customer{}
	for _, c := range m.items {
		if f.IsActive != nil && c.IsActive != *f.IsActive {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.FullName), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, len(out), nil
}

func (m *memStore) Get(_ context.Context, id int64) (customer.Customer, error) {
	c, ok := m.items[id]
	if !ok {
		return customer.Customer{}, common.NewAppError("NOT_FOUND", "customer not found", http.StatusNotFound, nil)
	}
	return c, nil
}

func (m *memStore) Create(_ context.Context, c customer.Customer) (customer.Customer, error) {
	c.ID = m.nextID
	m.nextID++
	m.items[c.ID] = c
	return c, nil
}

func (m *memStore) Update(_ context.Context, c customer.Customer) (customer.Customer, error) {
	if _, ok := m.items[c.ID]; !ok {
		return customer.Customer{}, common.NewAppError("NOT_FOUND", "customer not found", http.StatusNotFound, nil)
	}
	m.items[c.ID] = c
	return c, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return common.NewAppError("NOT_FOUND", "customer not found", http.StatusNotFound, nil)
	}
	delete(m.items, id)
	return nil
}

func newRouter(store customer.CustomerStore) http.Handler {
	h := customer.Handler{Store: store}
	r := chi.NewRouter()
	r.Get("/customers", h.List)
	r.Post("/customers", h.Create)
	r.Get("/customers/{id}", h.Get)
	r.Put("/customers/{id}", h.Update)
	r.Delete("/customers/{id}", h.Delete)
	return r
}

func TestCreateAndGetCustomer(t *testing.T) {
	router := newRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers",
		strings.NewReader(`{"full_name":"Dilnoza K","phone_number":"+998901234567"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data customer.Customer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Dilnoza K", body.Data.FullName)
	require.True(t, body.Data.IsActive, "new customers default to active")
}

func TestCreateCustomerRequiresName(t *testing.T) {
	router := newRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestUpdatePreservesUnsentFields(t *testing.T) {
	router := newRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers",
		strings.NewReader(`{"full_name":"Aziza","address":"Tashkent, Chilonzor"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/customers/1",
		strings.NewReader(`{"full_name":"Aziza M"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data customer.Customer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Aziza M", body.Data.FullName)
	require.NotNil(t, body.Data.Address)
	require.Equal(t, "Tashkent, Chilonzor", *body.Data.Address)
}

func TestListFiltersInactive(t *testing.T) {
	store := newMemStore()
	router := newRouter(store)

	for _, payload := range []string{
		`{"full_name":"Active One"}`,
		`{"full_name":"Inactive One","is_active":false}`,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(payload)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/customers?is_active=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	var body struct {
		Data []customer.Customer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "Active One", body.Data[0].FullName)
}

func TestDeleteMissingCustomerReturns404(t *testing.T) {
	router := newRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/customers/42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
