// microboard/database/pagination.go
package database

import "fmt"

// PageCount returns ceil(total / perPage), the number of pages needed to show
// total items. A non-positive perPage is a caller error, never a division.
func PageCount(total, perPage int) (int, error) {
	if perPage <= 0 {
		return 0, fmt.Errorf("per-page size %d: %w", perPage, ErrValidation)
	}
	if total < 0 {
		return 0, fmt.Errorf("total %d: %w", total, ErrValidation)
	}
	return (total + perPage - 1) / perPage, nil
}

// PageOffset translates a zero-based page number into a query offset. Callers
// clamp the page number to its allowed range before calling.
func PageOffset(page, perPage int) (int, error) {
	if perPage <= 0 {
		return 0, fmt.Errorf("per-page size %d: %w", perPage, ErrValidation)
	}
	if page < 0 {
		return 0, fmt.Errorf("page %d: %w", page, ErrValidation)
	}
	return page * perPage, nil
}
