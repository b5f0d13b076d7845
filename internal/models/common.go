// Package models holds the payload types exchanged with the planning backend.
package models

// Pagination holds client-side pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

// DefaultPagination returns default pagination settings.
func DefaultPagination() Pagination {
	return Pagination{
		Page:     1,
		PageSize: 20,
	}
}

// Offset calculates the index of the first item on the current page.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		p.Page = 1
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the page size, clamped to a sane range.
func (p Pagination) Limit() int {
	if p.PageSize < 1 {
		return 20
	}
	if p.PageSize > 100 {
		return 100
	}
	return p.PageSize
}

// TotalPages calculates the total number of pages.
func (p Pagination) TotalPages(total int) int {
	size := p.Limit()
	pages := total / size
	if total%size > 0 {
		pages++
	}
	if pages < 1 {
		return 1
	}
	return pages
}

// Status is the lifecycle marker shared by catalog entities.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusDeleted  Status = "DELETED"
	StatusFlagged  Status = "FLAGGED"
)

func (s Status) String() string {
	return string(s)
}

// Statuses lists the selectable statuses in display order.
var Statuses = []Status{StatusActive, StatusInactive, StatusFlagged, StatusDeleted}

// Branch is a site that menus and reports are scoped to.
type Branch struct {
	ID   int64  `json:"sucursalId" validate:"gte=0"`
	Name string `json:"nombre" validate:"required"`
}
