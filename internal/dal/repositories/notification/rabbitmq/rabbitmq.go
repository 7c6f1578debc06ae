package notificationrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"

	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/notification"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/outbox"
)

const contentTypeJSON = "application/json"

type publisher interface {
	Publish(exchange, routingKey string, msg amqp.Publishing) error
}

// NotificationRabbitMQRepository hands notifications to the mailer queue.
// Messages that cannot be published are parked in the outbox.
type NotificationRabbitMQRepository struct {
	publisher     publisher
	outboxRepo    ioutboxrepo.IOutboxRepository
	queueName     string
	maxAttempts   int
	retryInterval time.Duration
	now           func() time.Time
}

// NewNotificationRabbitMQRepository declares the notification queue and returns the repository.
func NewNotificationRabbitMQRepository(
	client *rabbitmq.Client,
	outboxRepo ioutboxrepo.IOutboxRepository,
) *NotificationRabbitMQRepository {
	queueName := viper.GetString("rabbitmq.notifications.queue")
	if queueName == "" {
		queueName = "bookstore.notifications"
	}

	queue, err := client.DeclareDurableQueue(queueName)
	if err != nil {
		panic(err)
	}

	maxAttempts := viper.GetInt("rabbitmq.outbox.max_retries")
	if maxAttempts == 0 {
		maxAttempts = 5
	}

	retryIntervalSeconds := viper.GetInt("rabbitmq.outbox.retry_interval_seconds")
	if retryIntervalSeconds == 0 {
		retryIntervalSeconds = 30
	}

	return newRepository(client, outboxRepo, queue.Name, maxAttempts, time.Duration(retryIntervalSeconds)*time.Second)
}

func newRepository(
	pub publisher,
	outboxRepo ioutboxrepo.IOutboxRepository,
	queueName string,
	maxAttempts int,
	retryInterval time.Duration,
) *NotificationRabbitMQRepository {
	return &NotificationRabbitMQRepository{
		publisher:     pub,
		outboxRepo:    outboxRepo,
		queueName:     queueName,
		maxAttempts:   maxAttempts,
		retryInterval: retryInterval,
		now:           time.Now,
	}
}

// Send publishes the notification, falling back to the outbox on failure.
func (r *NotificationRabbitMQRepository) Send(ctx context.Context, n notification.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	now := r.now()
	err = r.publisher.Publish("", r.queueName, amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    n.MessageID,
		Type:         n.Subject,
		Timestamp:    now,
		Body:         payload,
	})
	if err == nil {
		return nil
	}

	slog.WarnContext(ctx, "Failed to publish notification, storing in outbox",
		"message_id", n.MessageID,
		"subject", n.Subject,
		"error", err,
	)

	return r.outboxRepo.Park(ctx, outbox.Message{
		MessageID:     n.MessageID,
		Queue:         r.queueName,
		Subject:       n.Subject,
		Payload:       payload,
		MaxAttempts:   r.maxAttempts,
		LastError:     err.Error(),
		CreatedAt:     now,
		NextAttemptAt: now.Add(r.retryInterval),
	})
}
