package ioutboxrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/outbox"
)

// IOutboxRepository parks notifications that failed to publish.
type IOutboxRepository interface {
	// Park stores msg unless a message with the same MessageID is already parked.
	Park(ctx context.Context, msg outbox.Message) error

	// Due returns up to limit messages whose next attempt is at or before now
	// and that still have attempts left, oldest first.
	Due(ctx context.Context, now time.Time, limit int) ([]outbox.Message, error)

	Ack(ctx context.Context, id int64) error
	Reschedule(ctx context.Context, retry outbox.Retry) error
}
