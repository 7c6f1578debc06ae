package ordersvc

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/notification"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/orderitem"
)

func validateCreateOrder(in order.CreateOrderModel) error {
	required := []struct {
		field string
		value string
	}{
		{"name", in.Customer.Name},
		{"email", in.Customer.Email},
		{"phone", in.Customer.Phone},
		{"address", in.Customer.Address},
		{"paymentMethod", in.PaymentMethod},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errs.NewFieldError(r.field, "is required")
		}
	}

	if len(in.Items) == 0 {
		return errs.NewFieldError("orderProducts", "at least one item is required")
	}

	seen := make(map[int64]struct{}, len(in.Items))
	for _, item := range in.Items {
		if item.ProductID <= 0 {
			return errs.NewFieldError("productId", "must be positive")
		}
		if item.Quantity <= 0 {
			return errs.NewFieldError("quantity", fmt.Sprintf("product %d: must be positive", item.ProductID))
		}
		if _, ok := seen[item.ProductID]; ok {
			return errs.NewFieldError("orderProducts", fmt.Sprintf("product %d is listed twice", item.ProductID))
		}
		seen[item.ProductID] = struct{}{}
	}

	if in.DeliveryFee.IsNegative() {
		return errs.NewFieldError("deliveryFee", "must not be negative")
	}

	return nil
}

// CreateOrder validates stock and coupon, prices the order and stores it.
// Cash on delivery orders are confirmed immediately and take stock and coupon
// in the same transaction.
func (s *OrderService) CreateOrder(ctx context.Context, in order.CreateOrderModel) (_ *order.Order, err error) {
	ctx, span := s.startSpan(ctx, "CreateOrder",
		attribute.String("order.payment_method", in.PaymentMethod),
		attribute.Int("order.items", len(in.Items)),
	)
	defer func() { endSpan(span, err) }()

	if err := validateCreateOrder(in); err != nil {
		return nil, err
	}

	method, err := order.ParsePaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var created order.Order
	err = s.inTx(ctx, func(work unitOfWork) error {
		now := s.now()
		o := order.Order{
			Status:        method.InitialStatus(),
			Customer:      in.Customer,
			Note:          in.Note,
			PaymentMethod: method,
			DeliveryFee:   in.DeliveryFee,
			UserID:        in.UserID,
			CreatedAt:     now,
			UpdatedAt:     now,
			OrderItems:    make([]orderitem.OrderItem, 0, len(in.Items)),
		}

		for _, item := range in.Items {
			p, err := work.ProductRepository().Get(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if p.Quantity < item.Quantity {
				return fmt.Errorf("product %d: %w", p.ID, errs.ErrInsufficientStock)
			}

			o.OrderItems = append(o.OrderItems, orderitem.OrderItem{
				ProductID: p.ID,
				Quantity:  item.Quantity,
				Price:     p.Price,
				VatRate:   p.VatRate,
			})
		}
		o.ComputeTotals()

		if in.CouponCode != nil && *in.CouponCode != "" {
			code := *in.CouponCode
			c, err := work.CouponRepository().GetByCode(ctx, code)
			if err != nil {
				return err
			}
			if c == nil || c.Exhausted() {
				return fmt.Errorf("coupon %q: %w", code, errs.ErrCouponExhausted)
			}
			if !c.Applicable(now, o.Subtotal) {
				return fmt.Errorf("coupon %q: %w", code, errs.ErrCouponNotApplicable)
			}

			o.CouponCode = &code
			o.CouponAmount = c.Amount(o.Subtotal)
			o.ComputeTotals()
		}

		if err := s.insertWithUniqueCode(ctx, work.OrderRepository(), &o); err != nil {
			return err
		}

		for i := range o.OrderItems {
			o.OrderItems[i].OrderID = o.ID
		}
		items, err := work.OrderItemRepository().BulkInsert(ctx, o.OrderItems)
		if err != nil {
			return err
		}
		o.OrderItems = items

		if o.Status == order.StatusConfirmed {
			if err := applyLedgers(ctx, work, &o, o.OrderItems); err != nil {
				return err
			}
		}

		created = o

		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("order.code", created.Code))

	if created.Status == order.StatusConfirmed {
		s.notify(ctx, notification.SubjectOrderConfirmed, created.Email, &created)
	}

	return &created, nil
}
