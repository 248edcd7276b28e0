package domain

// Pagination bounds applied to every list endpoint.
const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page    int
	PerPage int
}

// NewPageRequest clamps perPage to [1, MaxPerPage] and page to at least 1.
// Callers substitute DefaultPerPage when the client sent no page size.
func NewPageRequest(page, perPage int) PageRequest {
	return PageRequest{Page: page, PerPage: perPage}.Normalize()
}

// Normalize returns a copy of p with bounds applied.
func (p PageRequest) Normalize() PageRequest {
	switch {
	case p.PerPage < 1:
		p.PerPage = 1
	case p.PerPage > MaxPerPage:
		p.PerPage = MaxPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Page is one page of results plus the counters clients use for navigation.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
}

// NewPage builds a Page, replacing a nil slice with an empty one.
func NewPage[T any](items []T, total int64, req PageRequest) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total, CurrentPage: req.Page, PerPage: req.PerPage}
}

// TotalPages is the number of the last page, at least 1.
func (p *Page[T]) TotalPages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// From is the 1-based position of the first item on this page, or 0 when empty.
func (p *Page[T]) From() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.CurrentPage-1)*p.PerPage + 1
}

// To is the 1-based position of the last item on this page, or 0 when empty.
func (p *Page[T]) To() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.From() + len(p.Items) - 1
}
