package ordersvc

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/notification"
)

func (s *OrderService) recipients(customerEmail string) []string {
	seen := make(map[string]struct{}, len(s.staffRecipients)+1)
	result := make([]string, 0, len(s.staffRecipients)+1)
	for _, r := range append([]string{customerEmail}, s.staffRecipients...) {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		result = append(result, r)
	}

	return result
}

// notify sends a snapshot of payload after a committed transition.
// Failures are logged and never returned.
func (s *OrderService) notify(ctx context.Context, subject, customerEmail string, payload any) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	body, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to render notification", "subject", subject, "error", err)

		return
	}

	n := notification.Notification{
		MessageID:  s.newMessageID(),
		Recipients: s.recipients(customerEmail),
		Subject:    subject,
		Body:       body,
	}

	if err := s.notifier.Send(ctx, n); err != nil {
		slog.ErrorContext(ctx, "Failed to send notification",
			"subject", subject,
			"message_id", n.MessageID,
			"error", err,
		)

		return
	}

	slog.InfoContext(ctx, "Notification sent", "subject", subject, "message_id", n.MessageID)
}
