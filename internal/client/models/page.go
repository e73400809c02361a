package models

import (
	"net/url"
	"strconv"
)

type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Page is one page of the admin user listing.
type Page struct {
	Users      []*User
	Pagination Pagination
}

// ListQuery mirrors the query parameters accepted by GET /api/users. Zero
// values are omitted and the server applies its defaults.
type ListQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Role      string
	IsActive  *bool
	Search    string
}

func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", q.SortOrder)
	}
	if q.Role != "" {
		v.Set("role", q.Role)
	}
	if q.IsActive != nil {
		v.Set("isActive", strconv.FormatBool(*q.IsActive))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}
