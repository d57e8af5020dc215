package shipment

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DevSheroz/glori82-admin/internal/common"
)

// Handler exposes shipment endpoints.
type Handler struct {
	Service *Service
}

type createRequest struct {
	ShippingNumber *string `json:"shipping_number"`
	Notes          *string `json:"notes"`
}

type statusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note"`
}

type attachRequest struct {
	OrderID int64 `json:"order_id" validate:"required,gt=0"`
}

// List returns a paginated shipment listing.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	items, total, err := h.Service.List(r.Context(), r.URL.Query().Get("status"), page, perPage)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSONList(w, items, common.Pagination{Page: page, PerPage: perPage, TotalItems: total})
}

// Get returns one shipment with members, history, and aggregates.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
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

// Create opens a new shipment.
func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload", nil)
		return
	}
	v, err := h.Service.Create(r.Context(), req.ShippingNumber, req.Notes)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": v})
}

// UpdateStatus moves the shipment through its lifecycle.
func (h Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload", nil)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RenderError(w, err)
		return
	}
	v, err := h.Service.UpdateStatus(r.Context(), id, req.Status, req.Note)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": v})
}

// AttachOrder adds an order to the shipment.
func (h Handler) AttachOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req attachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid JSON payload", nil)
		return
	}
	if err := common.ValidateStruct(req); err != nil {
		common.RenderError(w, err)
		return
	}
	v, err := h.Service.AttachOrder(r.Context(), id, req.OrderID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": v})
}

// DetachOrder removes an order from the shipment.
func (h Handler) DetachOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	orderID, ok := idParam(w, r, "orderID")
	if !ok {
		return
	}
	v, err := h.Service.DetachOrder(r.Context(), id, orderID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": v})
}

// Delete removes a shipment.
func (h Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
