package outbox

import (
	"time"
)

// Message is a notification that could not be published when it was sent.
// The outbox worker re-publishes it until Attempts reaches MaxAttempts.
type Message struct {
	ID            int64
	MessageID     string
	Queue         string
	Subject       string
	Payload       []byte
	Attempts      int
	MaxAttempts   int
	LastError     string
	CreatedAt     time.Time
	NextAttemptAt time.Time
}

// Retry records a failed re-publish of a parked message.
type Retry struct {
	ID            int64
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
}

// Failed returns the retry to store after another failed publish at now.
func (m Message) Failed(now time.Time, base time.Duration, cause error) Retry {
	attempts := m.Attempts + 1

	return Retry{
		ID:            m.ID,
		Attempts:      attempts,
		LastError:     cause.Error(),
		NextAttemptAt: now.Add(RetryDelay(base, attempts)),
	}
}

// Exhausted reports whether the retry used up the message's last attempt.
func (m Message) Exhausted(r Retry) bool {
	return r.Attempts >= m.MaxAttempts
}

// RetryDelay returns the backoff scheduled after the given failed attempt:
// base*2, base*4, base*8 and so on.
func RetryDelay(base time.Duration, attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}

	return base << attempts
}
