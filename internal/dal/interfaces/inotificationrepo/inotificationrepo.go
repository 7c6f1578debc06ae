package inotificationrepo

import (
	"context"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/notification"
)

// INotificationRepository delivers notifications to the mailer.
type INotificationRepository interface {
	Send(ctx context.Context, n notification.Notification) error
}
