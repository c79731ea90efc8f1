package helpers

import (
	"net/http"
	"strconv"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// PageRequest is the 1-based page a client asked for.
type PageRequest struct {
	Page     int
	PageSize int
}

func (p PageRequest) offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// ParsePagination reads page and page_size from the query string and clamps
// them. Invalid or missing values fall back to defaults.
func ParsePagination(r *http.Request) PageRequest {
	q := r.URL.Query()
	page := DefaultPage
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 1 {
		page = v
	}
	pageSize := DefaultPageSize
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v >= 1 {
		pageSize = min(v, MaxPageSize)
	}
	return PageRequest{Page: page, PageSize: pageSize}
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Page returns the items of the requested page and the metadata describing it.
func Page[T any](items []T, p PageRequest) ([]T, PaginationMeta) {
	total := len(items)
	meta := PaginationMeta{Page: p.Page, PageSize: p.PageSize, Total: total}
	if p.PageSize > 0 {
		meta.TotalPages = (total + p.PageSize - 1) / p.PageSize
	}
	start := min(p.offset(), total)
	end := min(start+p.PageSize, total)
	return items[start:end], meta
}
