package iordercache

import (
	"context"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
)

// IOrderCache caches order details by code.
//
// Every Invalidate bumps the code's generation. A reader takes the generation
// before loading the order and passes it to Set, which stores nothing if the
// order was invalidated in between.
type IOrderCache interface {
	// Get returns nil without error on a cache miss.
	Get(ctx context.Context, code string) (*order.Order, error)
	Generation(ctx context.Context, code string) (int64, error)
	// Set reports whether the order was stored.
	Set(ctx context.Context, o *order.Order, generation int64) (bool, error)
	Invalidate(ctx context.Context, codes ...string) error
}
