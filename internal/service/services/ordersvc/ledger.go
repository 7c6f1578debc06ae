package ordersvc

import (
	"context"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/orderitem"
)

// applyLedgers takes the stock of every line item and one coupon redemption
// for an order that has just been confirmed.
func applyLedgers(ctx context.Context, work unitOfWork, o *order.Order, items []orderitem.OrderItem) error {
	for _, item := range items {
		if err := work.ProductRepository().TryReserve(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	if o.CouponCode != nil {
		if err := work.CouponRepository().TryConsume(ctx, *o.CouponCode); err != nil {
			return err
		}
	}

	return nil
}

// releaseOnCancel is the single inventory effect of a cancellation.
// Stock is only returned when restocking is enabled and the order had reserved it.
func (s *OrderService) releaseOnCancel(ctx context.Context, work unitOfWork, o *order.Order) error {
	if !s.restockOnCancel || !o.Status.StockReserved() {
		return nil
	}

	items, err := work.OrderItemRepository().Query(ctx, orderitem.QueryOrderItemsModel{OrderIds: []int64{o.ID}})
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := work.ProductRepository().Release(ctx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	return nil
}
