package order

import (
	"time"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/listing"
)

// QueryOrdersModel represents filter parameters for querying orders.
type QueryOrdersModel struct {
	Status        *Status
	Search        string
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
	OrderByDesc   bool
}

// ListFilter is the input of the order list operation.
type ListFilter struct {
	Status *Status
	listing.Filter
}

// ToQuery resolves the filter into repository terms.
func (f ListFilter) ToQuery() QueryOrdersModel {
	w := f.Window()

	return QueryOrdersModel{
		Status:        f.Status,
		Search:        f.Search,
		CreatedFrom:   w.CreatedFrom,
		CreatedBefore: w.CreatedBefore,
		Limit:         w.Limit,
		Offset:        w.Offset,
		OrderByDesc:   f.OrderByDesc,
	}
}

// ListResult is a page of orders.
type ListResult struct {
	Orders     []Order `json:"orders"`
	TotalItems int64   `json:"totalItems"`
	TotalPages *int    `json:"totalPages,omitempty"`
}

// StatusUpdate describes a status write. When From is empty the write is
// unconditional, otherwise it only applies to orders currently in one of From.
type StatusUpdate struct {
	ID           int64
	From         []Status
	To           Status
	CancelReason *string
	UpdatedAt    time.Time
}

// CountRange bounds the order count by creation time.
type CountRange struct {
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
}

// StatusCount is the dashboard counter summary.
type StatusCount struct {
	Total     int64 `json:"total"`
	Confirmed int64 `json:"confirmed"`
	Shipping  int64 `json:"shipping"`
	Delivered int64 `json:"delivered"`
}
