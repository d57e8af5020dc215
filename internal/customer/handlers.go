package customer

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DevSheroz/glori82-admin/internal/common"
)

// CustomerStore is the persistence surface the handlers need.
type CustomerStore interface {
	List(ctx context.Context, f ListFilter) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
	Delete(ctx context.Context, id int64) error
}

// Handler exposes customer endpoints.
type Handler struct {
	Store CustomerStore
}

type customerRequest struct {
	FullName    string  `json:"full_name" validate:"required,min=1,max=200"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	Notes       *string `json:"notes"`
	IsActive    *bool   `json:"is_active"`
}

// List returns a filtered, paginated customer listing.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	f := ListFilter{
		Search:  r.URL.Query().Get("search"),
		Page:    page,
		PerPage: perPage,
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("is_active")); raw != "" {
		active := raw == "true" || raw == "1"
		f.IsActive = &active
	}
	items, total, err := h.Store.List(r.Context(), f)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONList(w, items, common.Pagination{Page: page, PerPage: perPage, TotalItems: total})
}

// Get returns one customer.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.Store.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Create adds a customer.
func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	c, err := h.Store.Create(r.Context(), req.apply(Customer{IsActive: true}))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

// Update modifies a customer.
func (h Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	req, ok := decode(w, r)
	if !ok {
		return
	}
	existing, err := h.Store.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	c, err := h.Store.Update(r.Context(), req.apply(existing))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Delete removes a customer.
func (h Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req customerRequest) apply(c Customer) Customer {
	c.FullName = strings.TrimSpace(req.FullName)
	if req.PhoneNumber != nil {
		c.PhoneNumber = req.PhoneNumber
	}
	if req.Address != nil {
		c.Address = req.Address
	}
	if req.Notes != nil {
		c.Notes = req.Notes
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	return c
}

func decode(w http.ResponseWriter, r *http.Request) (customerRequest, bool) {
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload", nil)
		return req, false
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RenderError(w, err)
		return req, false
	}
	return req, true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
