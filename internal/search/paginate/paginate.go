// Package paginate slices a filtered roster into pages.
package paginate

// Page is one page of results. Page is the 1-based page actually served,
// which differs from the requested one when it was clamped.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
	Page       int `json:"page"`
}

// TotalPages is ceil(totalItems/pageSize), or 0 for an empty set.
func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 {
		return 0
	}
	if pageSize < 1 {
		pageSize = 1
	}
	return (totalItems + pageSize - 1) / pageSize
}

// ClampPage maps a requested page into [1, totalPages], or 1 when there are
// no pages.
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate returns the requested page of items, clamping out-of-range pages
// to the nearest valid one. A pageSize below 1 is treated as 1. The returned
// Items never alias items.
func Paginate[T any](items []T, pageSize, page int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}
	total := len(items)
	totalPages := TotalPages(total, pageSize)
	page = ClampPage(page, totalPages)

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	out := make([]T, end-start)
	copy(out, items[start:end])

	return Page[T]{
		Items:      out,
		TotalItems: total,
		TotalPages: totalPages,
		Page:       page,
	}
}
