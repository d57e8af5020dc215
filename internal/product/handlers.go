package product

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DevSheroz/glori82-admin/internal/common"
)

// Handler exposes product endpoints.
type Handler struct {
	Service *Service
}

// List returns a filtered, paginated product listing. The unpaginated total
// travels both in the envelope and the X-Total-Count header.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := common.ParsePagination(r, 20)
	filter := ListFilter{
		Brand:   q.Get("brand"),
		Search:  q.Get("search"),
		Sort:    q.Get("sort"),
		Page:    page,
		PerPage: perPage,
	}
	if raw := strings.TrimSpace(q.Get("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "category_id must be an integer", nil)
			return
		}
		filter.CategoryID = &id
	}
	if raw := strings.TrimSpace(q.Get("is_active")); raw != "" {
		active := raw == "true" || raw == "1"
		filter.IsActive = &active
	}

	items, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONList(w, items, common.Pagination{Page: page, PerPage: perPage, TotalItems: total})
}

// Get returns one product by id.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := h.Service.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Create stores a new product.
func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload", nil)
		return
	}
	p, err := h.Service.Create(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": p})
}

// Update modifies a product.
func (h Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload", nil)
		return
	}
	p, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Delete removes a product.
func (h Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Brands lists distinct brand names, optionally scoped to a category.
func (h Handler) Brands(w http.ResponseWriter, r *http.Request) {
	var categoryID *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "category_id must be an integer", nil)
			return
		}
		categoryID = &id
	}
	brands, err := h.Service.Brands(r.Context(), categoryID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": brands})
}

// LowStock lists products at or below their reorder level.
func (h Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.LowStock(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
