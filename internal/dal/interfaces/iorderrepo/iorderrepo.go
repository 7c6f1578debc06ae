package iorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
)

// IOrderRepository is an interface for order repository.
type IOrderRepository interface {
	// Insert stores a new order and returns its id.
	// A taken code yields errs.ErrDuplicateCode and leaves the transaction usable.
	Insert(ctx context.Context, o order.Order) (int64, error)
	GetByCode(ctx context.Context, code string) (*order.Order, error)
	GetByID(ctx context.Context, id int64) (*order.Order, error)
	// UpdateStatus applies upd and reports whether a row was changed.
	UpdateStatus(ctx context.Context, upd order.StatusUpdate) (bool, error)
	Query(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, error)
	Count(ctx context.Context, filter order.QueryOrdersModel) (int64, error)
	CountByStatus(ctx context.Context, rng order.CountRange) (order.StatusCount, error)
}
