package common

import (
	"net/http"
	"strconv"
)

// Pagination holds pagination metadata for list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// MaxPerPage caps list page sizes so one query cannot pull a whole table.
const MaxPerPage = 100

// ParsePagination extracts page and per-page parameters from query values.
// Both "limit" and "per_page" are accepted for the page size.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	page = 1
	perPage = defaultPerPage
	q := r.URL.Query()
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	size := q.Get("limit")
	if size == "" {
		size = q.Get("per_page")
	}
	if l, err := strconv.Atoi(size); err == nil && l > 0 {
		perPage = l
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return
}
