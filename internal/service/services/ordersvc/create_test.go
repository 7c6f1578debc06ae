package ordersvc

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/coupon"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/notification"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
)

func TestCreateOrderCashOnDeliveryTakesStockAndCoupon(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(1, "10.00", 5)
	env.addCoupon(coupon.Coupon{
		Code:         "SPRING",
		DiscountType: coupon.DiscountTypeFixed,
		Discount:     decimal.NewFromInt(2),
		Quantity:     3,
	})

	in := createInput("COD", item(1, 1))
	in.CouponCode = ptr("SPRING")

	o, err := env.svc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, order.StatusConfirmed, o.Status)
	assert.Regexp(t, regexp.MustCompile(`^COD\d{12}[A-Z0-9]{4}$`), o.Code)
	assert.Equal(t, 4, env.store.product(1).Quantity)
	assert.Equal(t, 2, env.store.coupon("SPRING").Quantity)

	require.Len(t, o.OrderItems, 1)
	assert.Equal(t, o.ID, o.OrderItems[0].OrderID)
	assert.True(t, decimal.RequireFromString("10.00").Equal(o.OrderItems[0].Price))

	assert.True(t, decimal.NewFromInt(10).Equal(o.Subtotal), o.Subtotal.String())
	assert.True(t, decimal.NewFromInt(2).Equal(o.CouponAmount), o.CouponAmount.String())
	assert.True(t, decimal.NewFromInt(10).Equal(o.GrandTotal), o.GrandTotal.String())

	require.Len(t, env.notifier.sent, 1)
	sent := env.notifier.sent[0]
	assert.Equal(t, notification.SubjectOrderConfirmed, sent.Subject)
	assert.Equal(t, []string{"a@example.com", "staff@bookstore.test"}, sent.Recipients)
	assert.NotEmpty(t, sent.MessageID)
	assert.Contains(t, string(sent.Body), o.Code)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(1, "10.00", 1)

	_, err := env.svc.CreateOrder(context.Background(), createInput("COD", item(1, 2)))

	require.ErrorIs(t, err, errs.ErrInsufficientStock)
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Equal(t, 1, env.store.product(1).Quantity)
	assert.Zero(t, env.store.orderCount())
	assert.Empty(t, env.notifier.sent)
}

func TestCreateOrderOnlinePaymentLeavesLedgersUntouched(t *testing.T) {
	for _, method := range []string{"PAYPAL", "VNPAY"} {
		t.Run(method, func(t *testing.T) {
			env := newTestEnv(t)
			env.addProduct(1, "10.00", 5)
			env.addCoupon(coupon.Coupon{
				Code:         "SPRING",
				DiscountType: coupon.DiscountTypeFixed,
				Discount:     decimal.NewFromInt(2),
				Quantity:     3,
			})

			in := createInput(method, item(1, 3))
			in.CouponCode = ptr("SPRING")

			o, err := env.svc.CreateOrder(context.Background(), in)
			require.NoError(t, err)

			assert.Equal(t, order.StatusPending, o.Status)
			assert.Equal(t, order.PaymentMethod(method).CodePrefix(), o.Code[:3])
			assert.Equal(t, 5, env.store.product(1).Quantity)
			assert.Equal(t, 3, env.store.coupon("SPRING").Quantity)
			assert.Empty(t, env.notifier.sent)
		})
	}
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(1, "10.00", 5)

	tests := []struct {
		name   string
		mutate func(*order.CreateOrderModel)
		field  string
	}{
		{"missing name", func(in *order.CreateOrderModel) { in.Customer.Name = " " }, "name"},
		{"missing email", func(in *order.CreateOrderModel) { in.Customer.Email = "" }, "email"},
		{"missing phone", func(in *order.CreateOrderModel) { in.Customer.Phone = "" }, "phone"},
		{"missing address", func(in *order.CreateOrderModel) { in.Customer.Address = "" }, "address"},
		{"missing payment method", func(in *order.CreateOrderModel) { in.PaymentMethod = "" }, "paymentMethod"},
		{"no items", func(in *order.CreateOrderModel) { in.Items = nil }, "orderProducts"},
		{"zero quantity", func(in *order.CreateOrderModel) { in.Items[0].Quantity = 0 }, "quantity"},
		{"bad product id", func(in *order.CreateOrderModel) { in.Items[0].ProductID = 0 }, "productId"},
		{"duplicate product", func(in *order.CreateOrderModel) { in.Items = append(in.Items, item(1, 1)) }, "orderProducts"},
		{"negative delivery fee", func(in *order.CreateOrderModel) { in.DeliveryFee = decimal.NewFromInt(-1) }, "deliveryFee"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createInput("COD", item(1, 1))
			tt.mutate(&in)

			_, err := env.svc.CreateOrder(context.Background(), in)

			var fieldErr *errs.FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}

	assert.Equal(t, 5, env.store.product(1).Quantity)
	assert.Zero(t, env.store.orderCount())
}

func TestCreateOrderInvalidPaymentMethod(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(1, "10.00", 5)

	_, err := env.svc.CreateOrder(context.Background(), createInput("CARD", item(1, 1)))

	require.ErrorIs(t, err, errs.ErrInvalidPaymentMethod)
	assert.Zero(t, env.store.orderCount())
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateOrder(context.Background(), createInput("COD", item(7, 1)))

	require.ErrorIs(t, err, errs.ErrProductNotFound)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCreateOrderCouponRules(t *testing.T) {
	deleted := testNow.Add(-time.Hour)

	tests := []struct {
		name   string
		coupon *coupon.Coupon
		want   error
	}{
		{name: "missing", want: errs.ErrCouponExhausted},
		{
			name:   "exhausted",
			coupon: &coupon.Coupon{Code: "C", DiscountType: coupon.DiscountTypeFixed, Discount: decimal.NewFromInt(1)},
			want:   errs.ErrCouponExhausted,
		},
		{
			name: "expired",
			coupon: &coupon.Coupon{
				Code: "C", Quantity: 1, DiscountType: coupon.DiscountTypeFixed, Discount: decimal.NewFromInt(1),
				StartDate: testNow.AddDate(0, -2, 0), EndDate: testNow.AddDate(0, -1, 0),
			},
			want: errs.ErrCouponNotApplicable,
		},
		{
			name: "below minimum",
			coupon: &coupon.Coupon{
				Code: "C", Quantity: 1, DiscountType: coupon.DiscountTypeFixed, Discount: decimal.NewFromInt(1),
				MinimumRequire: decimal.NewFromInt(100),
			},
			want: errs.ErrCouponNotApplicable,
		},
		{
			name: "deleted",
			coupon: &coupon.Coupon{
				Code: "C", Quantity: 1, DiscountType: coupon.DiscountTypeFixed, Discount: decimal.NewFromInt(1),
				DeletedAt: &deleted,
			},
			want: errs.ErrCouponNotApplicable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.addProduct(1, "10.00", 5)
			if tt.coupon != nil {
				env.addCoupon(*tt.coupon)
			}

			in := createInput("COD", item(1, 1))
			in.CouponCode = ptr("C")

			_, err := env.svc.CreateOrder(context.Background(), in)

			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, 5, env.store.product(1).Quantity)
			assert.Zero(t, env.store.orderCount())
		})
	}
}

func TestCreateOrderPercentCouponTotals(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(1, "12.50", 10)
	env.addProduct(2, "7.25", 10)
	env.addCoupon(coupon.Coupon{
		Code:         "TENOFF",
		DiscountType: coupon.DiscountTypePercent,
		Discount:     decimal.NewFromInt(10),
		MaxReduction: ptr(decimal.NewFromInt(3)),
		Quantity:     1,
	})

	in := createInput("PAYPAL", item(1, 2), item(2, 1))
	in.CouponCode = ptr("TENOFF")

	o, err := env.svc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("32.25").Equal(o.Subtotal), o.Subtotal.String())
	assert.True(t, decimal.NewFromInt(3).Equal(o.CouponAmount), o.CouponAmount.String())
	assert.True(t, decimal.RequireFromString("31.25").Equal(o.GrandTotal), o.GrandTotal.String())
	assert.Equal(t, "TENOFF", *o.CouponCode)
}

func TestCreateOrderRetriesCodeCollisions(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(1, "10.00", 5)
	env.store.duplicateCodes = 2

	o, err := env.svc.CreateOrder(context.Background(), createInput("VNPAY", item(1, 1)))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^VNP240510093000[A-Z0-9]{4}$`), o.Code)
	assert.Equal(t, 1, env.store.orderCount())
}

func TestCreateOrderCodeGenerationExhausted(t *testing.T) {
	env := newTestEnv(t, WithCodeMaxAttempts(3))
	env.addProduct(1, "10.00", 5)
	env.store.duplicateCodes = 3

	_, err := env.svc.CreateOrder(context.Background(), createInput("COD", item(1, 1)))

	require.ErrorIs(t, err, errs.ErrCodeGenerationExhausted)
	assert.Equal(t, errs.ErrInternal, errs.Kind(err))
	assert.Equal(t, 5, env.store.product(1).Quantity)
	assert.Zero(t, env.store.orderCount())
}

func TestCreateOrderRollsBackOnReserveFailure(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(1, "10.00", 5)
	env.addProduct(2, "10.00", 5)
	env.addCoupon(coupon.Coupon{
		Code:         "SPRING",
		DiscountType: coupon.DiscountTypeFixed,
		Discount:     decimal.NewFromInt(2),
		Quantity:     3,
	})
	env.store.failReserve[2] = errReserveBroken

	in := createInput("COD", item(1, 2), item(2, 1))
	in.CouponCode = ptr("SPRING")

	_, err := env.svc.CreateOrder(context.Background(), in)

	require.ErrorIs(t, err, errReserveBroken)
	assert.Equal(t, 5, env.store.product(1).Quantity)
	assert.Equal(t, 3, env.store.coupon("SPRING").Quantity)
	assert.Zero(t, env.store.orderCount())
	assert.Empty(t, env.store.itemsOf(1))
}

func TestCreateOrderConcurrentNeverOversells(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(1, "10.00", 3)

	const buyers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := env.svc.CreateOrder(context.Background(), createInput("COD", item(1, 1)))
			if err != nil {
				assert.True(t, errors.Is(err, errs.ErrInsufficientStock), err.Error())

				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 0, env.store.product(1).Quantity)
	assert.Equal(t, 3, env.store.orderCount())
}

func TestCreateOrderNotificationFailureIsSwallowed(t *testing.T) {
	env := newTestEnv(t)
	env.addProduct(1, "10.00", 5)
	env.notifier.err = errors.New("broker down")

	o, err := env.svc.CreateOrder(context.Background(), createInput("COD", item(1, 1)))
	require.NoError(t, err)

	assert.Equal(t, order.StatusConfirmed, o.Status)
	assert.Equal(t, 4, env.store.product(1).Quantity)
}

func TestGenerateCode(t *testing.T) {
	at := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)

	code := generateCode(order.PaymentMethodPayPal, at)

	assert.Regexp(t, regexp.MustCompile(`^PPL250102030405[A-Z0-9]{4}$`), code)
}

func TestRecipientsDeduplicates(t *testing.T) {
	env := newTestEnv(t, WithStaffRecipients([]string{"a@example.com", "", "ops@bookstore.test"}))

	assert.Equal(t, []string{"a@example.com", "ops@bookstore.test"}, env.svc.recipients("a@example.com"))
	assert.Equal(t, []string{"a@example.com", "ops@bookstore.test"}, env.svc.recipients(""))
}
