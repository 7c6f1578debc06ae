package returnrequest

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the return request state. The values are ordinals, not a progression.
type Status int

const (
	StatusRequested  Status = 0
	StatusConfirmed  Status = 1
	StatusProcessing Status = 2
	StatusCompleted  Status = 3
	StatusDeclined   Status = 4
)

var statusNames = map[Status]string{
	StatusRequested:  "REQUESTED",
	StatusConfirmed:  "CONFIRMED",
	StatusProcessing: "PROCESSING",
	StatusCompleted:  "COMPLETED",
	StatusDeclined:   "DECLINED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}

	return "UNKNOWN"
}

// Valid reports whether s is a defined status.
func (s Status) Valid() bool {
	_, ok := statusNames[s]

	return ok
}

// ReturnRequest represents a customer claim against the items of one order.
type ReturnRequest struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"orderId"`
	Status       Status          `json:"status"`
	ReturnReason string          `json:"returnReason"`
	RefundAmount decimal.Decimal `json:"refundAmount"`
	Response     *string         `json:"response,omitempty"`
	Images       []string        `json:"images"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
