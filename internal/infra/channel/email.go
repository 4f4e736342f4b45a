package channel

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"fanout/internal/domain/notification"
)

var _ notification.Strategy = (*Email)(nil)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

const emailTimeLayout = "2006-01-02 15:04:05"

// Email delivers messages by electronic mail.
type Email struct {
	transport Transport
	clock     notification.Clock
}

// NewEmail creates an email strategy. A nil transport simulates delivery.
func NewEmail(t Transport, clock notification.Clock) *Email {
	if t == nil {
		t = SimulatedTransport{}
	}
	if clock == nil {
		clock = notification.SystemClock
	}
	return &Email{transport: t, clock: clock}
}

// Channel returns the email channel identifier.
func (s *Email) Channel() notification.Channel {
	return notification.ChannelEmail
}

// ValidateRecipient checks the trimmed address against the accepted format.
func (s *Email) ValidateRecipient(r *notification.Recipient) bool {
	if r == nil {
		return false
	}
	addr := strings.TrimSpace(r.Email)
	return addr != "" && emailPattern.MatchString(addr)
}

// Subject returns the subject line for msg.
func (s *Email) Subject(msg *notification.Message) string {
	return fmt.Sprintf("[%s] New Update Available", msg.Category.Label())
}

// Format renders the plain-text mail body.
func (s *Email) Format(msg *notification.Message, r *notification.Recipient) string {
	return fmt.Sprintf(`Dear %s,

We have a new %s update for you:

%s

This message was sent on %s.

Best regards,
Editorial Team
`,
		r.Name,
		msg.Category.Label(),
		msg.Content,
		msg.CreatedAt.Format(emailTimeLayout),
	)
}

// Send validates the address, formats the mail and hands it to the transport.
func (s *Email) Send(ctx context.Context, r *notification.Recipient, msg *notification.Message) notification.Outcome {
	if !s.ValidateRecipient(r) {
		return notification.Failed("Invalid email address format", s.clock.Now())
	}

	env := Envelope{
		Channel:    notification.ChannelEmail,
		To:         strings.TrimSpace(r.Email),
		Subject:    s.Subject(msg),
		Body:       s.Format(msg, r),
		ExternalID: newExternalID("EMAIL"),
	}
	if err := deliver(ctx, s.transport, env); err != nil {
		return notification.Failed("Email delivery failed: "+err.Error(), s.clock.Now())
	}
	return notification.Succeeded(env.ExternalID, s.clock.Now())
}
