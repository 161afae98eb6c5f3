// Package view is the transaction view-model: a working copy of one
// date-scoped transaction set plus every projection the dashboard derives
// from it (table page, aggregates, insights), an edit session, and the
// refetch orchestrator that keeps the copy authoritative.
package view

import (
	"fmt"

	"github.com/kmenon/spendlens-go/internal/domain"
)

// State is the user-adjustable projection input: free-text query, sort
// spec, and pagination cursor. Never persisted across sessions.
type State struct {
	Query    string          `json:"query"`
	Sort     domain.SortSpec `json:"sort"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// NewState is the state a freshly mounted table opens with.
func NewState() State {
	return State{Sort: domain.DefaultSort(), Page: 1, PageSize: 10}
}

// SetQuery installs a new filter query. A changed query resets pagination
// to the first page.
func (s *State) SetQuery(q string) {
	if q == s.Query {
		return
	}
	s.Query = q
	s.Page = 1
}

// SetPageSize changes the page size and, if it actually changed, resets
// to the first page.
func (s *State) SetPageSize(n int) error {
	if n <= 0 {
		return &domain.ErrValidation{Field: "page_size", Message: "must be a positive integer"}
	}
	if n == s.PageSize {
		return nil
	}
	s.PageSize = n
	s.Page = 1
	return nil
}

// SetPage floors the page at 1. Clamping against the filtered total
// happens at derive time, so a shrinking result set cannot strand the
// view past the last page.
func (s *State) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	s.Page = n
}

// SortBy selects a sort column. Re-selecting the active key toggles the
// direction; a newly selected key always starts ascending.
func (s *State) SortBy(key domain.SortKey) error {
	if !key.Valid() {
		return &domain.ErrValidation{Field: "sort", Message: fmt.Sprintf("unknown sort key %q", key)}
	}
	if key == s.Sort.Key {
		if s.Sort.Direction == domain.SortAsc {
			s.Sort.Direction = domain.SortDesc
		} else {
			s.Sort.Direction = domain.SortAsc
		}
		return nil
	}
	s.Sort = domain.SortSpec{Key: key, Direction: domain.SortAsc}
	return nil
}
