// Package pagination turns page and page_size query parameters into store
// windows.
package pagination

import "github.com/approvenow/server/internal/model"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Query is the page selection bound from the query string. Out-of-range
// values are clamped rather than rejected.
type Query struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

func (q Query) page() int {
	return max(q.Page, 1)
}

func (q Query) size() int {
	switch {
	case q.PageSize < 1:
		return DefaultPageSize
	case q.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return q.PageSize
	}
}

// Request returns the store window for q.
func (q Query) Request() model.PaginationRequest {
	return model.PaginationRequest{Limit: q.size(), Offset: (q.page() - 1) * q.size()}
}

// PageInfo describes the returned page.
type PageInfo struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	// Count is the number of items on this page.
	Count int `json:"count"`
}

// Info describes a page of q holding count items.
func (q Query) Info(count int) PageInfo {
	return PageInfo{Page: q.page(), PageSize: q.size(), Count: count}
}
