package dashboard

import (
	"net/http"
	"strings"
	"time"

	"github.com/DevSheroz/glori82-admin/internal/common"
)

// Handler exposes the dashboard endpoints.
type Handler struct {
	Service *Service
}

// Metrics returns the headline summary.
func (h Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.Metrics(r.Context())
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": m})
}

// SalesOverTime returns daily completed sales for a date range.
func (h Handler) SalesOverTime(w http.ResponseWriter, r *http.Request) {
	var from, to time.Time
	var ok bool
	if from, ok = dateParam(w, r.URL.Query().Get("from"), "from"); !ok {
		return
	}
	if to, ok = dateParam(w, r.URL.Query().Get("to"), "to"); !ok {
		return
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	points, err := h.Service.SalesOverTime(r.Context(), from, to)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": points})
}

// TopProducts returns the best sellers.
func (h Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	limit := common.AtoiDefault(r.URL.Query().Get("limit"), 10)
	products, err := h.Service.TopProducts(r.Context(), limit)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": products})
}

func dateParam(w http.ResponseWriter, raw, name string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", name+" must be YYYY-MM-DD", nil)
		return time.Time{}, false
	}
	return t, true
}
