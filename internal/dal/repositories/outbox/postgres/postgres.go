package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/corray333/backend-labs/bookstore/internal/dal/postgres"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/outbox"
)

const outboxTable = "notification_outbox"

// OutboxRepository keeps undelivered notifications in the notification_outbox table.
type OutboxRepository struct {
	conn postgres.DBTX
}

func NewOutboxRepository(conn postgres.DBTX) *OutboxRepository {
	return &OutboxRepository{
		conn: conn,
	}
}

func (r *OutboxRepository) Park(ctx context.Context, msg outbox.Message) error {
	query, args, err := buildPark(msg).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to park notification %s: %w", msg.MessageID, err)
	}

	return nil
}

func (r *OutboxRepository) Due(ctx context.Context, now time.Time, limit int) ([]outbox.Message, error) {
	query, args, err := buildDue(now, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var messages []outbox.Message
	for rows.Next() {
		var msg outbox.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.MessageID,
			&msg.Queue,
			&msg.Subject,
			&msg.Payload,
			&msg.Attempts,
			&msg.MaxAttempts,
			&msg.LastError,
			&msg.CreatedAt,
			&msg.NextAttemptAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return messages, nil
}

// Ack drops a message once it has been published.
func (r *OutboxRepository) Ack(ctx context.Context, id int64) error {
	query, args, err := sq.Delete(outboxTable).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to ack outbox message %d: %w", id, err)
	}

	return nil
}

func (r *OutboxRepository) Reschedule(ctx context.Context, retry outbox.Retry) error {
	query, args, err := buildReschedule(retry).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err = r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to reschedule outbox message %d: %w", retry.ID, err)
	}

	return nil
}

func buildPark(msg outbox.Message) sq.InsertBuilder {
	return sq.Insert(outboxTable).
		Columns(
			"message_id",
			"queue",
			"subject",
			"payload",
			"attempts",
			"max_attempts",
			"last_error",
			"created_at",
			"next_attempt_at",
		).
		Values(
			msg.MessageID,
			msg.Queue,
			msg.Subject,
			msg.Payload,
			msg.Attempts,
			msg.MaxAttempts,
			msg.LastError,
			msg.CreatedAt,
			msg.NextAttemptAt,
		).
		Suffix("ON CONFLICT (message_id) DO NOTHING").
		PlaceholderFormat(sq.Dollar)
}

func buildDue(now time.Time, limit int) sq.SelectBuilder {
	return sq.Select(
		"id",
		"message_id",
		"queue",
		"subject",
		"payload",
		"attempts",
		"max_attempts",
		"last_error",
		"created_at",
		"next_attempt_at",
	).
		From(outboxTable).
		Where(sq.LtOrEq{"next_attempt_at": now}).
		Where("attempts < max_attempts").
		OrderBy("next_attempt_at ASC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar)
}

func buildReschedule(retry outbox.Retry) sq.UpdateBuilder {
	return sq.Update(outboxTable).
		Set("attempts", retry.Attempts).
		Set("last_error", retry.LastError).
		Set("next_attempt_at", retry.NextAttemptAt).
		Where(sq.Eq{"id": retry.ID}).
		PlaceholderFormat(sq.Dollar)
}
