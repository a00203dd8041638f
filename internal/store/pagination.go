package store

// PageParams contains page-based pagination request parameters.
type PageParams struct {
	Page     int // 1-based page number (defaults to 1)
	PageSize int // Items per page (defaults to 10 with a maximum of 100)
}

// Normalize checks and corrects pagination parameters.
func (p *PageParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

// Paged contains one page of data and metadata.
type Paged[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

// PageSlice cuts one page out of a fully sorted result set.
// HasNext is true exactly when items remain beyond this page.
func PageSlice[T any](items []T, p PageParams) Paged[T] {
	p.Normalize()

	total := len(items)
	start := (p.Page - 1) * p.PageSize
	if start > total {
		start = total
	}
	end := start + p.PageSize
	if end > total {
		end = total
	}

	return Paged[T]{
		Items:   items[start:end],
		Total:   total,
		HasNext: total > p.Page*p.PageSize,
	}
}
