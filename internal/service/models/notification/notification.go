package notification

import "encoding/json"

// Subjects of the messages sent on order and return transitions.
const (
	SubjectOrderConfirmed         = "Order Confirmed"
	SubjectReturnRequestReceived  = "Return Request Received"
	SubjectReturnRequestConfirmed = "Return Request Confirmed"
	SubjectReturnRequestDeclined  = "Return Request Declined"
)

// Notification is a rendered message addressed to a list of recipients.
type Notification struct {
	MessageID  string          `json:"messageId"`
	Recipients []string        `json:"recipients"`
	Subject    string          `json:"subject"`
	Body       json.RawMessage `json:"body"`
}
