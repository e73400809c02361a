package models

import "math"

// Sortable account columns, by their API names.
const (
	SortCreatedAt = "createdAt"
	SortEmail     = "email"
	SortFirstName = "firstName"
	SortLastName  = "lastName"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListQuery selects a page of accounts.
type ListQuery struct {
	Page     int
	Limit    int
	SortBy   string
	SortDesc bool
	Role     *Role
	IsActive *bool
	Search   string
}

// Normalize fills defaults and clamps out-of-range values.
func (q *ListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	switch q.SortBy {
	case SortCreatedAt, SortEmail, SortFirstName, SortLastName:
	default:
		q.SortBy = SortCreatedAt
	}
}

// Offset is the number of rows skipped before the page. It saturates at
// math.MaxInt instead of overflowing, which yields an empty page.
func (q ListQuery) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// Page is one page of accounts plus totals.
type Page struct {
	Items []*Account
	Page  int
	Limit int
	Total int
}

// TotalPages is the number of pages needed to show Total items.
func (p Page) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

func (p Page) HasNext() bool { return p.Page < p.TotalPages() }

func (p Page) HasPrev() bool { return p.Page > 1 }
