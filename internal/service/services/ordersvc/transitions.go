package ordersvc

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/notification"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/orderitem"
)

// ConfirmPayment moves a PENDING order to CONFIRMED and takes its stock and coupon.
func (s *OrderService) ConfirmPayment(ctx context.Context, code string) (err error) {
	ctx, span := s.startSpan(ctx, "ConfirmPayment", attribute.String("order.code", code))
	defer func() { endSpan(span, err) }()

	var confirmed order.Order
	err = s.inTx(ctx, func(work unitOfWork) error {
		o, err := work.OrderRepository().GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if o.Status != order.StatusPending {
			return errs.ErrInvalidStateTransition
		}

		now := s.now()
		ok, err := work.OrderRepository().UpdateStatus(ctx, order.StatusUpdate{
			ID:        o.ID,
			From:      []order.Status{order.StatusPending},
			To:        order.StatusConfirmed,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrInvalidStateTransition
		}

		items, err := work.OrderItemRepository().Query(ctx, orderitem.QueryOrderItemsModel{OrderIds: []int64{o.ID}})
		if err != nil {
			return err
		}
		if err := applyLedgers(ctx, work, o, items); err != nil {
			return err
		}

		o.Status = order.StatusConfirmed
		o.UpdatedAt = now
		o.OrderItems = items
		confirmed = *o

		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, code)
	s.notify(ctx, notification.SubjectOrderConfirmed, confirmed.Email, &confirmed)

	return nil
}

// ChangeOrderStatus is the administrative override: any defined status is
// written without checking the current one.
func (s *OrderService) ChangeOrderStatus(ctx context.Context, code string, status int) (err error) {
	ctx, span := s.startSpan(ctx, "ChangeOrderStatus",
		attribute.String("order.code", code),
		attribute.Int("order.status", status),
	)
	defer func() { endSpan(span, err) }()

	target := order.Status(status)
	if !target.Valid() {
		return errs.NewFieldError("status", "unknown order status")
	}

	err = s.inTx(ctx, func(work unitOfWork) error {
		o, err := work.OrderRepository().GetByCode(ctx, code)
		if err != nil {
			return err
		}

		ok, err := work.OrderRepository().UpdateStatus(ctx, order.StatusUpdate{
			ID:        o.ID,
			To:        target,
			UpdatedAt: s.now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrOrderNotFound
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, code)

	return nil
}

// getOwnedOrder returns the order identified by code when email matches its customer.
func getOwnedOrder(ctx context.Context, work unitOfWork, code, email string) (*order.Order, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errs.NewFieldError("code", "is required")
	}
	if strings.TrimSpace(email) == "" {
		return nil, errs.NewFieldError("email", "is required")
	}

	o, err := work.OrderRepository().GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !o.MatchesEmail(email) {
		return nil, errs.ErrOrderNotFound
	}

	return o, nil
}

// CancelOrder cancels an order that has not shipped yet.
func (s *OrderService) CancelOrder(ctx context.Context, code, email, reason string) (err error) {
	ctx, span := s.startSpan(ctx, "CancelOrder", attribute.String("order.code", code))
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(work unitOfWork) error {
		o, err := getOwnedOrder(ctx, work, code, email)
		if err != nil {
			return err
		}
		if !o.Status.Cancelable() {
			return errs.ErrNotCancelable
		}

		var cancelReason *string
		if reason != "" {
			cancelReason = &reason
		}

		ok, err := work.OrderRepository().UpdateStatus(ctx, order.StatusUpdate{
			ID:           o.ID,
			From:         order.CancelableStatuses,
			To:           order.StatusCanceled,
			CancelReason: cancelReason,
			UpdatedAt:    s.now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrNotCancelable
		}

		return s.releaseOnCancel(ctx, work, o)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, code)

	return nil
}

// ConfirmReceivedOrder completes a delivered order on behalf of its customer.
func (s *OrderService) ConfirmReceivedOrder(ctx context.Context, code, email string) (err error) {
	ctx, span := s.startSpan(ctx, "ConfirmReceivedOrder", attribute.String("order.code", code))
	defer func() { endSpan(span, err) }()

	err = s.inTx(ctx, func(work unitOfWork) error {
		o, err := getOwnedOrder(ctx, work, code, email)
		if err != nil {
			return err
		}
		if o.Status != order.StatusDelivered {
			return errs.ErrNotConfirmable
		}

		ok, err := work.OrderRepository().UpdateStatus(ctx, order.StatusUpdate{
			ID:        o.ID,
			From:      []order.Status{order.StatusDelivered},
			To:        order.StatusCompleted,
			UpdatedAt: s.now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrNotConfirmable
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, code)

	return nil
}
