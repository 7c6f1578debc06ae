package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/outbox"
)

func TestBuildPark(t *testing.T) {
	query, args, err := buildPark(outbox.Message{MessageID: "m-1", Queue: "q"}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"INSERT INTO notification_outbox (message_id,queue,subject,payload,attempts,max_attempts,last_error,created_at,next_attempt_at) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ON CONFLICT (message_id) DO NOTHING",
		query,
	)
	assert.Len(t, args, 9)
	assert.Equal(t, "m-1", args[0])
}

func TestBuildDue(t *testing.T) {
	now := time.Date(2024, time.May, 10, 9, 30, 0, 0, time.UTC)

	query, args, err := buildDue(now, 50).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, message_id, queue, subject, payload, attempts, max_attempts, last_error, created_at, next_attempt_at "+
			"FROM notification_outbox WHERE next_attempt_at <= $1 AND attempts < max_attempts "+
			"ORDER BY next_attempt_at ASC LIMIT 50",
		query,
	)
	assert.Equal(t, []any{now}, args)
}

func TestBuildReschedule(t *testing.T) {
	next := time.Date(2024, time.May, 10, 9, 31, 0, 0, time.UTC)

	query, args, err := buildReschedule(outbox.Retry{
		ID:            9,
		Attempts:      2,
		LastError:     "channel closed",
		NextAttemptAt: next,
	}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE notification_outbox SET attempts = $1, last_error = $2, next_attempt_at = $3 WHERE id = $4",
		query,
	)
	assert.Equal(t, []any{2, "channel closed", next, int64(9)}, args)
}
