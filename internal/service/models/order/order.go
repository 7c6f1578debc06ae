package order

import (
	"time"

	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/returnrequest"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. Values are persisted as integers.
type Status int

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusProcessing
	StatusShipping
	StatusDelivered
	StatusCompleted
	StatusCanceled
)

var statusNames = [...]string{
	"PENDING",
	"CONFIRMED",
	"PROCESSING",
	"SHIPPING",
	"DELIVERED",
	"COMPLETED",
	"CANCELED",
}

func (s Status) String() string {
	if !s.Valid() {
		return "UNKNOWN"
	}

	return statusNames[s]
}

// Valid reports whether s is a defined status.
func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusCanceled
}

// CancelableStatuses lists the statuses a customer may cancel from.
var CancelableStatuses = []Status{StatusPending, StatusConfirmed, StatusProcessing}

// Cancelable reports whether an order in status s can be canceled by the customer.
func (s Status) Cancelable() bool {
	return s >= StatusPending && s < StatusShipping
}

// StockReserved reports whether an order in status s has already taken stock
// from the inventory ledger.
func (s Status) StockReserved() bool {
	return s > StatusPending && s != StatusCanceled
}

// PaymentMethod is how the customer pays for the order.
type PaymentMethod string

const (
	PaymentMethodPayPal PaymentMethod = "PAYPAL"
	PaymentMethodVNPay  PaymentMethod = "VNPAY"
	PaymentMethodCOD    PaymentMethod = "COD"
)

var codePrefixes = map[PaymentMethod]string{
	PaymentMethodPayPal: "PPL",
	PaymentMethodVNPay:  "VNP",
	PaymentMethodCOD:    "COD",
}

// ParsePaymentMethod validates a raw payment method value.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if _, ok := codePrefixes[m]; !ok {
		return "", errs.ErrInvalidPaymentMethod
	}

	return m, nil
}

// CodePrefix returns the order code prefix for the payment method.
func (m PaymentMethod) CodePrefix() string {
	return codePrefixes[m]
}

// InitialStatus returns the status a new order starts in.
// Cash on delivery orders are confirmed right away; online payments wait for the gateway.
func (m PaymentMethod) InitialStatus() Status {
	if m == PaymentMethodCOD {
		return StatusConfirmed
	}

	return StatusPending
}

// Customer is the contact and shipping snapshot taken when the order is placed.
type Customer struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	District string `json:"district"`
	Province string `json:"province"`
	Country  string `json:"country"`
}

// Order represents an order in the system.
type Order struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Status Status `json:"status"`
	Customer
	Note          *string         `json:"note,omitempty"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	CouponCode    *string         `json:"couponCode,omitempty"`
	CouponAmount  decimal.Decimal `json:"couponAmount"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	CancelReason  *string         `json:"cancelReason,omitempty"`
	UserID        *int64          `json:"userId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	OrderItems    []orderitem.OrderItem        `json:"orderItems"`
	ReturnRequest *returnrequest.ReturnRequest `json:"returnRequest,omitempty"`
}

// ComputeTotals sets Subtotal and GrandTotal from the line items, the coupon
// amount and the delivery fee.
func (o *Order) ComputeTotals() {
	subtotal := decimal.Zero
	for _, item := range o.OrderItems {
		subtotal = subtotal.Add(item.LineTotal())
	}
	o.Subtotal = subtotal
	o.GrandTotal = subtotal.Sub(o.CouponAmount).Add(o.DeliveryFee)
}

// MatchesEmail reports whether email identifies the customer of the order.
func (o *Order) MatchesEmail(email string) bool {
	return o.Email == email
}
