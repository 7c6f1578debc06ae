package ireturnrequestrepo

import (
	"context"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/returnrequest"
)

// IReturnRequestRepository is an interface for return request repository.
type IReturnRequestRepository interface {
	// Insert stores a new request and returns its id.
	// A second request for the same order yields errs.ErrReturnRequestExists.
	Insert(ctx context.Context, rr returnrequest.ReturnRequest) (int64, error)
	InsertImages(ctx context.Context, requestID int64, urls []string) error
	GetByID(ctx context.Context, id int64) (*returnrequest.ReturnRequest, error)
	GetByOrderID(ctx context.Context, orderID int64) (*returnrequest.ReturnRequest, error)
	UpdateStatus(ctx context.Context, upd returnrequest.StatusUpdate) (bool, error)
	Query(
		ctx context.Context,
		filter returnrequest.QueryReturnRequestsModel,
	) ([]returnrequest.ReturnRequest, error)
	Count(ctx context.Context, filter returnrequest.QueryReturnRequestsModel) (int64, error)
	ListImages(ctx context.Context, requestIDs []int64) (map[int64][]string, error)
}
