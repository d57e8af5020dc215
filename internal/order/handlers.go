package order

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DevSheroz/glori82-admin/internal/common"
)

// Handler exposes order endpoints.
type Handler struct {
	Service *Service
}

// List returns a filtered, paginated order listing with derived pricing.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := common.ParsePagination(r, 20)
	f := ListFilter{
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
		Sort:          q.Get("sort"),
		Page:          page,
		PerPage:       perPage,
	}
	if raw := strings.TrimSpace(q.Get("customer_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "customer_id must be an integer", nil)
			return
		}
		f.CustomerID = &id
	}
	var ok bool
	if f.From, ok = dateParam(w, q.Get("from"), "from"); !ok {
		return
	}
	if f.To, ok = dateParam(w, q.Get("to"), "to"); !ok {
		return
	}

	views, total, err := h.Service.List(r.Context(), f)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONList(w, views, common.Pagination{Page: page, PerPage: perPage, TotalItems: total})
}

// Get returns one order with derived pricing.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	v, err := h.Service.Get(r.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": v})
}

// Create submits a new order.
func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload", nil)
		return
	}
	v, err := h.Service.Create(r.Context(), in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": v})
}

// Update modifies an order.
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
	v, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": v})
}

// Delete removes an order.
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

func dateParam(w http.ResponseWriter, raw, name string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be YYYY-MM-DD", nil)
		return nil, false
	}
	if name == "to" {
		t = t.AddDate(0, 0, 1)
	}
	return &t, true
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
