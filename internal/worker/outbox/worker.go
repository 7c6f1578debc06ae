package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"

	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/outbox"
)

const contentTypeJSON = "application/json"

type publisher interface {
	Publish(exchange, routingKey string, msg amqp.Publishing) error
}

// Worker re-publishes notifications that could not be delivered when they were sent.
type Worker struct {
	outboxRepo    ioutboxrepo.IOutboxRepository
	publisher     publisher
	pollInterval  time.Duration
	batchSize     int
	retryInterval time.Duration
	now           func() time.Time
	stopCh        chan struct{}
}

// NewWorker creates a new outbox worker.
func NewWorker(outboxRepo ioutboxrepo.IOutboxRepository, publisher publisher) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	retryIntervalSeconds := viper.GetInt("rabbitmq.outbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	return &Worker{
		outboxRepo:    outboxRepo,
		publisher:     publisher,
		pollInterval:  time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:     batchSize,
		retryInterval: time.Duration(retryIntervalSeconds) * time.Second,
		now:           time.Now,
		stopCh:        make(chan struct{}),
	}
}

// Start polls the outbox until ctx is done or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Outbox worker stopped")

			return
		case <-ticker.C:
			w.processMessages(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

// processMessages publishes every due message once.
func (w *Worker) processMessages(ctx context.Context) {
	messages, err := w.outboxRepo.Due(ctx, w.now(), w.batchSize)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load due notifications from outbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.InfoContext(ctx, "Redelivering parked notifications", "count", len(messages))

	for _, msg := range messages {
		w.processMessage(ctx, msg)
	}
}

func (w *Worker) processMessage(ctx context.Context, msg outbox.Message) {
	err := w.publisher.Publish("", msg.Queue, amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.MessageID,
		Type:         msg.Subject,
		Timestamp:    w.now(),
		Body:         msg.Payload,
	})
	if err == nil {
		if err := w.outboxRepo.Ack(ctx, msg.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to ack redelivered notification",
				"outbox_id", msg.ID,
				"error", err,
			)

			return
		}
		slog.InfoContext(ctx, "Notification redelivered", "message_id", msg.MessageID, "subject", msg.Subject)

		return
	}

	retry := msg.Failed(w.now(), w.retryInterval, err)
	if msg.Exhausted(retry) {
		slog.ErrorContext(ctx, "Notification dropped after its last attempt",
			"message_id", msg.MessageID,
			"subject", msg.Subject,
			"attempts", retry.Attempts,
			"error", err,
		)
	} else {
		slog.WarnContext(ctx, "Failed to redeliver notification, will retry",
			"message_id", msg.MessageID,
			"attempts", retry.Attempts,
			"next_attempt", retry.NextAttemptAt,
			"error", err,
		)
	}

	if err := w.outboxRepo.Reschedule(ctx, retry); err != nil {
		slog.ErrorContext(ctx, "Failed to reschedule notification", "outbox_id", msg.ID, "error", err)
	}
}
