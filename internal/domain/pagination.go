package domain

import "fmt"

// PageSize is the fixed number of presets per catalog page.
const PageSize = 20

// Sort keys accepted by the catalog listing.
type Sort string

const (
	SortLatest  Sort = "latest"
	SortPopular Sort = "popular"
	SortLikes   Sort = "likes"
)

// Sorts lists the sort keys in display order.
var Sorts = []Sort{SortLatest, SortPopular, SortLikes}

// ParseSort validates a sort key. The empty string maps to SortLatest.
func ParseSort(s string) (Sort, error) {
	if s == "" {
		return SortLatest, nil
	}
	for _, known := range Sorts {
		if Sort(s) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

// ListQuery is one catalog listing request.
type ListQuery struct {
	Page   int
	Sort   Sort
	Search string
}

// PageCount returns ceil(total / PageSize).
func PageCount(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// ClampPage bounds page to [1, PageCount(total)]. With no known total only
// the first page is reachable.
func ClampPage(page, total int) int {
	last := PageCount(total)
	if last < 1 {
		last = 1
	}
	if page > last {
		page = last
	}
	if page < 1 {
		page = 1
	}
	return page
}
