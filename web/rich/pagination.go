package rich

import (
	"errors"
	"fmt"
)

// Default pagination values
const (
	DefaultPage    = 1
	DefaultPerPage = 50
	MaxPerPage     = 100
)

// Page represents a 1-based page number
type Page uint64

// PerPage represents items per page
type PerPage uint64

// Pagination validation errors
var (
	ErrPerPageTooLarge = errors.New("per_page exceeds maximum limit")
)

// ParsePageFromUint64 creates a Page, zero meaning the first page
func ParsePageFromUint64(page uint64) Page {
	if page == 0 {
		return Page(DefaultPage)
	}
	return Page(page)
}

// ParsePerPageFromUint64 creates a PerPage with domain validation, zero
// meaning the default size
func ParsePerPageFromUint64(perPage uint64) (PerPage, error) {
	if perPage == 0 {
		return PerPage(DefaultPerPage), nil
	}
	if perPage > MaxPerPage {
		return 0, fmt.Errorf("%w: must be between 1 and %d", ErrPerPageTooLarge, MaxPerPage)
	}
	return PerPage(perPage), nil
}

// Uint64 returns the underlying uint64 value
func (p Page) Uint64() uint64 {
	return uint64(p)
}

// Uint64 returns the underlying uint64 value
func (pp PerPage) Uint64() uint64 {
	return uint64(pp)
}

// Pagination is the page window shared by all criteria
type Pagination struct {
	Page Page
	Size PerPage
}

// ItemsPerPage returns the number of items requested per page
func (p Pagination) ItemsPerPage() uint64 {
	return p.Size.Uint64()
}

// ItemsToSkip returns the number of items to skip for pagination
func (p Pagination) ItemsToSkip() uint64 {
	return (p.Page.Uint64() - 1) * p.Size.Uint64()
}

func newPagination(page, perPage uint64) (Pagination, error) {
	pp, err := ParsePerPageFromUint64(perPage)
	if err != nil {
		return Pagination{}, fmt.Errorf("%w: %w", ErrInvalidPerPage, err)
	}
	return Pagination{Page: ParsePageFromUint64(page), Size: pp}, nil
}

// PageInfo is the navigation metadata of a result page
type PageInfo struct {
	HasMore bool // true if there are more pages after this one
	Number  Page
	Size    PerPage
}

func (p PageInfo) PageNumber() int   { return int(p.Number) }
func (p PageInfo) PageSize() int     { return int(p.Size) }
func (p PageInfo) HasNext() bool     { return p.HasMore }
func (p PageInfo) HasPrevious() bool { return p.Number > 1 }

// Trim drops the look-ahead item fetched to detect further pages and
// returns the page info for the remaining items
func Trim[T any](items []T, p Pagination) ([]T, PageInfo) {
	info := PageInfo{Number: p.Page, Size: p.Size}
	if uint64(len(items)) > p.ItemsPerPage() {
		info.HasMore = true
		items = items[:p.ItemsPerPage()]
	}
	return items, info
}
