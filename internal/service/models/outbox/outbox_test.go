package outbox

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelay(t *testing.T) {
	base := 30 * time.Second

	assert.Equal(t, 60*time.Second, RetryDelay(base, 1))
	assert.Equal(t, 120*time.Second, RetryDelay(base, 2))
	assert.Equal(t, 240*time.Second, RetryDelay(base, 3))
	assert.Equal(t, base, RetryDelay(base, -2))
}

func TestMessageFailed(t *testing.T) {
	now := time.Date(2024, time.May, 10, 9, 30, 0, 0, time.UTC)
	msg := Message{ID: 4, Attempts: 4, MaxAttempts: 5}

	retry := msg.Failed(now, 30*time.Second, errors.New("channel closed"))

	assert.Equal(t, Retry{
		ID:            4,
		Attempts:      5,
		LastError:     "channel closed",
		NextAttemptAt: now.Add(960 * time.Second),
	}, retry)
	assert.True(t, msg.Exhausted(retry))
	assert.False(t, Message{MaxAttempts: 5}.Exhausted(Message{}.Failed(now, time.Second, errors.New("x"))))
}
