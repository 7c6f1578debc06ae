package iproductrepo

import (
	"context"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/product"
)

// IProductRepository is the inventory ledger.
type IProductRepository interface {
	Get(ctx context.Context, id int64) (*product.Product, error)
	// TryReserve decrements the available quantity only if at least qty is left.
	// It fails with errs.ErrInsufficientStock otherwise.
	TryReserve(ctx context.Context, id int64, qty int) error
	Release(ctx context.Context, id int64, qty int) error
}
