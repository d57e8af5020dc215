package category

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DevSheroz/glori82-admin/internal/common"
)

// CategoryStore is the persistence surface the handlers need.
type CategoryStore interface {
	List(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, name string) (Category, error)
	Rename(ctx context.Context, id int64, name string) (Category, error)
	Delete(ctx context.Context, id int64) error
	AddAttribute(ctx context.Context, categoryID int64, name string, sortOrder int32) (Attribute, error)
	UpdateAttribute(ctx context.Context, id int64, name string, sortOrder int32) (Attribute, error)
	DeleteAttribute(ctx context.Context, id int64) error
}

// Handler exposes category and attribute-definition endpoints.
type Handler struct {
	Store CategoryStore
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

type attributeRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=120"`
	SortOrder int32  `json:"sort_order" validate:"gte=0"`
}

// List returns every category with its attribute definitions.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Store.List(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": categories})
}

// Get returns one category.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
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

// Create adds a category.
func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCategory(w, r)
	if !ok {
		return
	}
	c, err := h.Store.Create(r.Context(), req.Name)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

// Update renames a category.
func (h Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := decodeCategory(w, r)
	if !ok {
		return
	}
	c, err := h.Store.Rename(r.Context(), id, req.Name)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

// Delete removes a category.
func (h Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddAttribute appends an attribute definition to a category.
func (h Handler) AddAttribute(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := decodeAttribute(w, r)
	if !ok {
		return
	}
	a, err := h.Store.AddAttribute(r.Context(), categoryID, req.Name, req.SortOrder)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": a})
}

// UpdateAttribute renames or reorders an attribute definition.
func (h Handler) UpdateAttribute(w http.ResponseWriter, r *http.Request) {
	attrID, ok := idParam(w, r, "attributeID")
	if !ok {
		return
	}
	req, ok := decodeAttribute(w, r)
	if !ok {
		return
	}
	a, err := h.Store.UpdateAttribute(r.Context(), attrID, req.Name, req.SortOrder)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": a})
}

// DeleteAttribute removes an attribute definition.
func (h Handler) DeleteAttribute(w http.ResponseWriter, r *http.Request) {
	attrID, ok := idParam(w, r, "attributeID")
	if !ok {
		return
	}
	if err := h.Store.DeleteAttribute(r.Context(), attrID); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeCategory(w http.ResponseWriter, r *http.Request) (categoryRequest, bool) {
	var req categoryRequest
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

func decodeAttribute(w http.ResponseWriter, r *http.Request) (attributeRequest, bool) {
	var req attributeRequest
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

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
