// Package listing holds the filter and pagination rules shared by list endpoints.
package listing

import (
	"time"

	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
)

// Filter represents the common list parameters.
// Page and PageSize are 1-based and optional; zero means "not given".
type Filter struct {
	Search      string
	From        *time.Time
	To          *time.Time
	Page        int
	PageSize    int
	OrderByDesc bool
}

// Window is a Filter resolved into storage terms.
type Window struct {
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// Validate checks the pagination values.
func (f Filter) Validate() error {
	if f.Page < 0 {
		return errs.NewFieldError("page", "must not be negative")
	}
	if f.PageSize < 0 {
		return errs.NewFieldError("pageSize", "must not be negative")
	}
	if f.From != nil && f.To != nil && f.To.Before(StartOfDay(*f.From)) {
		return errs.NewFieldError("toDate", "must not be before fromDate")
	}

	return nil
}

// Paginated reports whether both page and page size were supplied.
func (f Filter) Paginated() bool {
	return f.Page > 0 && f.PageSize > 0
}

// Window resolves the date range and pagination.
// The upper date bound covers the whole day it names.
func (f Filter) Window() Window {
	w := Window{CreatedFrom: f.From}
	if f.To != nil {
		before := StartOfDay(*f.To).AddDate(0, 0, 1)
		w.CreatedBefore = &before
	}
	if f.Paginated() {
		w.Limit = f.PageSize
		w.Offset = (f.Page - 1) * f.PageSize
	}

	return w
}

// TotalPages returns ceil(total/pageSize), or nil when the filter is not paginated.
func (f Filter) TotalPages(total int64) *int {
	if !f.Paginated() {
		return nil
	}
	pages := int((total + int64(f.PageSize) - 1) / int64(f.PageSize))

	return &pages
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
