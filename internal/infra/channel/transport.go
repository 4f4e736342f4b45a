// Package channel implements the per-transport delivery strategies.
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"fanout/internal/domain/notification"

	"github.com/google/uuid"
)

// Envelope is the fully formatted payload handed to a Transport.
type Envelope struct {
	Channel    notification.Channel
	To         string
	Subject    string
	Body       string
	ExternalID string
}

// Transport performs the wire-level delivery of an envelope.
type Transport interface {
	Deliver(ctx context.Context, env Envelope) error
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(ctx context.Context, env Envelope) error

// Deliver implements Transport.
func (f TransportFunc) Deliver(ctx context.Context, env Envelope) error { return f(ctx, env) }

// SimulatedTransport logs the envelope instead of contacting a provider.
type SimulatedTransport struct{}

// Deliver implements Transport.
func (SimulatedTransport) Deliver(ctx context.Context, env Envelope) error {
	slog.Info("simulated delivery",
		"channel", env.Channel,
		"to", env.To,
		"subject", env.Subject,
		"body", preview(env.Body, 100),
		"external_id", env.ExternalID,
	)
	return nil
}

// deliver runs the transport and turns a panic into an error.
func deliver(ctx context.Context, t Transport, env Envelope) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	return t.Deliver(ctx, env)
}

// newExternalID returns prefix followed by 8 lowercase hex characters drawn
// from a random 128-bit value.
func newExternalID(prefix string) string {
	return prefix + "-" + uuid.New().String()[:8]
}

// truncate shortens s to max UTF-16 code units, replacing the tail with "..."
// when cut. A surrogate pair is never split, so a cut result may be one unit short.
func truncate(s string, max int) string {
	if codeUnits(s) <= max {
		return s
	}
	var b strings.Builder
	n := 0
	for _, r := range s {
		w := utf16.RuneLen(r)
		if w < 0 {
			w = 1
		}
		if n+w > max-3 {
			break
		}
		n += w
		b.WriteRune(r)
	}
	return b.String() + "..."
}

func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		if w := utf16.RuneLen(r); w > 0 {
			n += w
		} else {
			n++
		}
	}
	return n
}

func preview(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// All returns the three built-in strategies sharing one transport and clock.
func All(t Transport, clock notification.Clock) []notification.Strategy {
	return []notification.Strategy{
		NewSMS(t, clock),
		NewEmail(t, clock),
		NewPush(t, clock),
	}
}
