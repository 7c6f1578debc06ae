package returnrequest

import (
	"time"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/listing"
)

// QueryReturnRequestsModel represents filter parameters for querying return requests.
// Search applies to the parent order's code, name, phone and email.
type QueryReturnRequestsModel struct {
	Status        *Status
	Search        string
	CreatedFrom   *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
	OrderByDesc   bool
}

// ListFilter is the input of the return request list operation.
type ListFilter struct {
	Status *Status
	listing.Filter
}

// ToQuery resolves the filter into repository terms.
func (f ListFilter) ToQuery() QueryReturnRequestsModel {
	w := f.Window()

	return QueryReturnRequestsModel{
		Status:        f.Status,
		Search:        f.Search,
		CreatedFrom:   w.CreatedFrom,
		CreatedBefore: w.CreatedBefore,
		Limit:         w.Limit,
		Offset:        w.Offset,
		OrderByDesc:   f.OrderByDesc,
	}
}

// ListResult is a page of return requests.
type ListResult struct {
	ReturnRequests []ReturnRequest `json:"returnRequests"`
	TotalItems     int64           `json:"totalItems"`
	TotalPages     *int            `json:"totalPages,omitempty"`
}

// StatusUpdate overwrites the status and optionally the staff response.
type StatusUpdate struct {
	ID        int64
	To        Status
	Response  *string
	UpdatedAt time.Time
}
