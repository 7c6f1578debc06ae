package orderitem

import (
	"github.com/shopspring/decimal"
)

// OrderItem represents a line item of an order.
// Price and VatRate are copied from the product when the order is created.
type OrderItem struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"orderId"`
	ProductID      int64           `json:"productId"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	VatRate        decimal.Decimal `json:"vatRate"`
	ReturnQuantity *int            `json:"returnQuantity,omitempty"`
}

// LineTotal returns quantity multiplied by the unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ReturnQuantity assigns a returned quantity to a line item.
type ReturnQuantity struct {
	OrderItemID int64
	Quantity    int
}
