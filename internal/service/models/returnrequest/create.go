package returnrequest

import (
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/orderitem"
)

// CreateReturnRequestModel is the input of return request creation.
type CreateReturnRequestModel struct {
	OrderID      int64
	ReturnReason string
	RefundAmount decimal.Decimal
	Items        []orderitem.ReturnQuantity
	Images       []string
}
