package category_test

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

	"github.com/DevSheroz/glori82-admin/internal/category"
	"github.com/DevSheroz/glori82-admin/internal/common"
)

type memStore struct {
	categories map[int64]category.Category
	attrs      map[int64]category.Attribute
	nextCat    int64
	nextAttr   int64
}

func newMemStore() *memStore {
	return &memStore{
		categories: map[int64]category.Category{},
		attrs:      map[int64]category.Attribute{},
		nextCat:    1,
		nextAttr:   1,
	}
}

func (m *memStore) List(context.Context) ([]category.Category, error) {
	out := []category.Category{}
	for id := range m.categories {
		c, _ := m.Get(context.Background(), id)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) Get(_ context.Context, id int64) (category.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return category.Category{}, common.NewAppError("NOT_FOUND", "category not found", http.StatusNotFound, nil)
	}
	c.Attributes = []category.Attribute{}
	for _, a := range m.attrs {
		if a.CategoryID == id {
			c.Attributes = append(c.Attributes, a)
		}
	}
	sort.Slice(c.Attributes, func(i, j int) bool { return c.Attributes[i].SortOrder < c.Attributes[j].SortOrder })
	return c, nil
}

func (m *memStore) Create(_ context.Context, name string) (category.Category, error) {
	for _, c := range m.categories {
		if c.Name == name {
			return category.Category{}, common.NewAppError("CONFLICT", "category name already exists", http.StatusConflict, nil)
		}
	}
	c := category.Category{ID: m.nextCat, Name: name, Attributes: []category.Attribute{}}
	m.nextCat++
	m.categories[c.ID] = c
	return c, nil
}

func (m *memStore) Rename(ctx context.Context, id int64, name string) (category.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return category.Category{}, common.NewAppError("NOT_FOUND", "category not found", http.StatusNotFound, nil)
	}
	c.Name = name
	m.categories[id] = c
	return m.Get(ctx, id)
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return common.NewAppError("NOT_FOUND", "category not found", http.StatusNotFound, nil)
	}
	delete(m.categories, id)
	return nil
}

func (m *memStore) AddAttribute(_ context.Context, categoryID int64, name string, sortOrder int32) (category.Attribute, error) {
	a := category.Attribute{ID: m.nextAttr, CategoryID: categoryID, Name: name, SortOrder: sortOrder}
	m.nextAttr++
	m.attrs[a.ID] = a
	return a, nil
}

func (m *memStore) UpdateAttribute(_ context.Context, id int64, name string, sortOrder int32) (category.Attribute, error) {
	a, ok := m.attrs[id]
	if !ok {
		return category.Attribute{}, common.NewAppError("NOT_FOUND", "attribute not found", http.StatusNotFound, nil)
	}
	a.Name = name
	a.SortOrder = sortOrder
	m.attrs[id] = a
	return a, nil
}

func (m *memStore) DeleteAttribute(_ context.Context, id int64) error {
	if _, ok := m.attrs[id]; !ok {
		return common.NewAppError("NOT_FOUND", "attribute not found", http.StatusNotFound, nil)
	}
	delete(m.attrs, id)
	return nil
}

func newRouter(store category.CategoryStore) http.Handler {
	h := category.Handler{Store: store}
	r := chi.NewRouter()
	r.Get("/categories", h.List)
	r.Post("/categories", h.Create)
	r.Get("/categories/{id}", h.Get)
	r.Put("/categories/{id}", h.Update)
	r.Delete("/categories/{id}", h.Delete)
	r.Post("/categories/{id}/attributes", h.AddAttribute)
	r.Put("/categories/{id}/attributes/{attributeID}", h.UpdateAttribute)
	r.Delete("/categories/{id}/attributes/{attributeID}", h.DeleteAttribute)
	return r
}

func TestCreateAndListCategories(t *testing.T) {
	router := newRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Skincare"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []category.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "Skincare", body.Data[0].Name)
	require.NotNil(t, body.Data[0].Attributes)
}

func TestCreateCategoryRejectsEmptyName(t *testing.T) {
	router := newRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":""}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestAttributeLifecycle(t *testing.T) {
	store := newMemStore()
	router := newRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Makeup"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/categories/1/attributes",
		strings.NewReader(`{"name":"Shade","sort_order":2}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/categories/1/attributes",
		strings.NewReader(`{"name":"Volume","sort_order":1}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data category.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data.Attributes, 2)
	require.Equal(t, "Volume", body.Data.Attributes[0].Name, "attributes sorted by sort_order")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/categories/1/attributes/1",
		strings.NewReader(`{"name":"Shade name","sort_order":0}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/categories/1/attributes/2", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetMissingCategoryReturns404(t *testing.T) {
	router := newRouter(newMemStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories/99", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")
}
