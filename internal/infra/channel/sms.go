package channel

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"fanout/internal/domain/notification"
)

var _ notification.Strategy = (*SMS)(nil)

var phonePattern = regexp.MustCompile(`^\+?[0-9\s\-\(\)]{10,}$`)

// SMSMaxLength is the longest body a single text message may carry.
const SMSMaxLength = 160

// SMS delivers messages as short text messages.
type SMS struct {
	transport Transport
	clock     notification.Clock
}

// NewSMS creates an SMS strategy. A nil transport simulates delivery.
func NewSMS(t Transport, clock notification.Clock) *SMS {
	if t == nil {
		t = SimulatedTransport{}
	}
	if clock == nil {
		clock = notification.SystemClock
	}
	return &SMS{transport: t, clock: clock}
}

// Channel returns the SMS channel identifier.
func (s *SMS) Channel() notification.Channel {
	return notification.ChannelSMS
}

// ValidateRecipient checks the trimmed telephone number.
func (s *SMS) ValidateRecipient(r *notification.Recipient) bool {
	if r == nil {
		return false
	}
	phone := strings.TrimSpace(r.Phone)
	return phone != "" && phonePattern.MatchString(phone)
}

// Format renders the text body, truncated to SMSMaxLength.
func (s *SMS) Format(msg *notification.Message, r *notification.Recipient) string {
	body := fmt.Sprintf("Hi %s! [%s] %s", r.Name, msg.Category.Label(), msg.Content)
	return truncate(body, SMSMaxLength)
}

// Send validates the number, formats the text and hands it to the transport.
func (s *SMS) Send(ctx context.Context, r *notification.Recipient, msg *notification.Message) notification.Outcome {
	if !s.ValidateRecipient(r) {
		return notification.Failed("Invalid phone number format", s.clock.Now())
	}

	env := Envelope{
		Channel:    notification.ChannelSMS,
		To:         strings.TrimSpace(r.Phone),
		Body:       s.Format(msg, r),
		ExternalID: newExternalID("SMS"),
	}
	if err := deliver(ctx, s.transport, env); err != nil {
		return notification.Failed("SMS delivery failed: "+err.Error(), s.clock.Now())
	}
	return notification.Succeeded(env.ExternalID, s.clock.Now())
}
