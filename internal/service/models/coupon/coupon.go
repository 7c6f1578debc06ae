package coupon

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType selects how Discount is interpreted.
type DiscountType string

const (
	DiscountTypeFixed   DiscountType = "FIXED"
	DiscountTypePercent DiscountType = "PERCENT"
)

var hundred = decimal.NewFromInt(100)

// Coupon represents a redeemable discount code.
type Coupon struct {
	ID             int64            `json:"id"`
	Code           string           `json:"code"`
	StartDate      time.Time        `json:"startDate"`
	EndDate        time.Time        `json:"endDate"`
	DiscountType   DiscountType     `json:"discountType"`
	Discount       decimal.Decimal  `json:"discount"`
	MaxReduction   *decimal.Decimal `json:"maxReduction,omitempty"`
	Quantity       int              `json:"quantity"`
	MinimumRequire decimal.Decimal  `json:"minimumRequire"`
	DeletedAt      *time.Time       `json:"deletedAt,omitempty"`
}

// Exhausted reports whether no redemptions are left.
func (c Coupon) Exhausted() bool {
	return c.Quantity <= 0
}

// Applicable reports whether the coupon can be used at now for an order with the given subtotal.
func (c Coupon) Applicable(now time.Time, subtotal decimal.Decimal) bool {
	if c.DeletedAt != nil {
		return false
	}
	if now.Before(c.StartDate) || now.After(c.EndDate) {
		return false
	}

	return subtotal.GreaterThanOrEqual(c.MinimumRequire)
}

// Amount returns the reduction granted on subtotal. It never exceeds the subtotal.
func (c Coupon) Amount(subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.DiscountType {
	case DiscountTypePercent:
		amount = subtotal.Mul(c.Discount).Div(hundred).Round(2)
		if c.MaxReduction != nil && amount.GreaterThan(*c.MaxReduction) {
			amount = *c.MaxReduction
		}
	default:
		amount = c.Discount
	}

	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	if amount.IsNegative() {
		return decimal.Zero
	}

	return amount
}
