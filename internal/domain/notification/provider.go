package notification

import (
	"context"
	"time"
)

// Strategy defines the contract for a notification delivery channel.
// Implementations live in infra/channel/ (SMS, email, push).
type Strategy interface {
	// Channel returns which delivery channel this strategy handles.
	Channel() Channel

	// ValidateRecipient checks the recipient's addressing for this channel only.
	ValidateRecipient(r *Recipient) bool

	// Format produces the transport body. It is deterministic for fixed inputs.
	Format(msg *Message, r *Recipient) string

	// Send attempts delivery. Failures are reported in the outcome, never as a panic.
	Send(ctx context.Context, r *Recipient, msg *Message) Outcome
}

// Clock is the single source of time for the dispatch path.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Recorder receives dispatch metrics. Implementations live in infra/metrics/.
type Recorder interface {
	RecordAttempt(channel Channel, status Status)
	RecordDispatch(category Category, attempts int, took time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordAttempt(Channel, Status) {}
func (nopRecorder) RecordDispatch(Category, int, time.Duration) {}
