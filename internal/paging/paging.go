// Package paging slices ordered collections into pages for list display.
package paging

// DefaultPageSize is the page size used by the station table and the
// network list when the caller does not override it.
const DefaultPageSize = 10

// Info describes the position of a returned page within the whole
// collection. StartIndex and EndIndex are 1-indexed for display
// ("Showing 11-20 of 243"); both are 0 when the collection is empty.
type Info struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	PageSize    int `json:"page_size"`
	StartIndex  int `json:"start_index"`
	EndIndex    int `json:"end_index"`
}

// Result is one page of items plus its display metadata.
type Result[T any] struct {
	Items []T  `json:"items"`
	Info  Info `json:"pagination"`
}

// Paginate returns the requested page of items. Out-of-range page
// numbers are clamped into [1, totalPages], never an error, and a
// non-positive pageSize falls back to DefaultPageSize. An empty input
// yields an empty page with TotalPages = 1.
func Paginate[T any](items []T, page, pageSize int) Result[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	totalItems := len(items)
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}

	info := Info{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		PageSize:    pageSize,
	}
	if totalItems > 0 {
		info.StartIndex = start + 1
		info.EndIndex = end
	}

	return Result[T]{
		Items: items[start:end],
		Info:  info,
	}
}
