package channel

import (
	"context"
	"fmt"
	"strings"

	"fanout/internal/domain/notification"
)

var _ notification.Strategy = (*Push)(nil)

// Push payload limits.
const (
	PushTitleMaxLength = 50
	PushBodyMaxLength  = 200
)

// Push delivers messages as mobile push notifications addressed by recipient ID.
type Push struct {
	transport Transport
	clock     notification.Clock
}

// NewPush creates a push strategy. A nil transport simulates delivery.
func NewPush(t Transport, clock notification.Clock) *Push {
	if t == nil {
		t = SimulatedTransport{}
	}
	if clock == nil {
		clock = notification.SystemClock
	}
	return &Push{transport: t, clock: clock}
}

// Channel returns the push channel identifier.
func (s *Push) Channel() notification.Channel {
	return notification.ChannelPush
}

// ValidateRecipient only requires a non-blank recipient ID.
func (s *Push) ValidateRecipient(r *notification.Recipient) bool {
	return r != nil && strings.TrimSpace(r.ID) != ""
}

// Title returns the notification title, truncated to PushTitleMaxLength.
func (s *Push) Title(msg *notification.Message) string {
	return truncate(fmt.Sprintf("%s Update", msg.Category.Label()), PushTitleMaxLength)
}

// Format returns the message content, truncated to PushBodyMaxLength.
func (s *Push) Format(msg *notification.Message, _ *notification.Recipient) string {
	return truncate(msg.Content, PushBodyMaxLength)
}

// Send validates the recipient and hands the notification to the transport.
func (s *Push) Send(ctx context.Context, r *notification.Recipient, msg *notification.Message) notification.Outcome {
	if !s.ValidateRecipient(r) {
		return notification.Failed("User not registered for push notifications", s.clock.Now())
	}

	env := Envelope{
		Channel:    notification.ChannelPush,
		To:         r.ID,
		Subject:    s.Title(msg),
		Body:       s.Format(msg, r),
		ExternalID: newExternalID("PUSH"),
	}
	if err := deliver(ctx, s.transport, env); err != nil {
		return notification.Failed("Push notification delivery failed: "+err.Error(), s.clock.Now())
	}
	return notification.Succeeded(env.ExternalID, s.clock.Now())
}
