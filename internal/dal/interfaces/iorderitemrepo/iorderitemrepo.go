package iorderitemrepo

import (
	"context"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/orderitem"
)

// IOrderItemRepository is an interface for order item repository.
type IOrderItemRepository interface {
	BulkInsert(ctx context.Context, orderItems []orderitem.OrderItem) ([]orderitem.OrderItem, error)
	Query(ctx context.Context, filter orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error)
	SetReturnQuantities(ctx context.Context, quantities []orderitem.ReturnQuantity) error
}
