package product

import (
	"github.com/shopspring/decimal"
)

// Product is the inventory view of a catalog product.
type Product struct {
	ID       int64           `json:"id"`
	Price    decimal.Decimal `json:"price"`
	VatRate  decimal.Decimal `json:"vatRate"`
	Quantity int             `json:"quantity"`
}
