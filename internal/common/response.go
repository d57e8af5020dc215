package common

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorBody represents a consistent error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes the provided value to the response writer as JSON.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONList writes the paginated data envelope and mirrors the total in the
// X-Total-Count header for table clients.
func JSONList(w http.ResponseWriter, items any, p Pagination) {
	w.Header().Set("X-Total-Count", strconv.Itoa(p.TotalItems))
	JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": p,
	})
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
