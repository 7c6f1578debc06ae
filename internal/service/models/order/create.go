package order

import (
	"github.com/shopspring/decimal"
)

// CreateOrderItemModel is a requested line item. Price and tax are taken from the product.
type CreateOrderItemModel struct {
	ProductID int64
	Quantity  int
}

// CreateOrderModel is the input of order creation.
type CreateOrderModel struct {
	Customer      Customer
	Items         []CreateOrderItemModel
	CouponCode    *string
	DeliveryFee   decimal.Decimal
	Note          *string
	UserID        *int64
	PaymentMethod string
}
