package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fanout/internal/domain/notification"
)

var _ Transport = (*ResendTransport)(nil)

const resendEndpoint = "https://api.resend.com/emails"

// ResendTransport delivers email envelopes through the Resend API.
type ResendTransport struct {
	apiKey      string
	fromAddress string
	fromName    string
	endpoint    string
	httpClient  *http.Client
}

// NewResendTransport creates a new Resend email transport.
func NewResendTransport(apiKey, fromAddress, fromName string) *ResendTransport {
	return &ResendTransport{
		apiKey:      apiKey,
		fromAddress: fromAddress,
		fromName:    fromName,
		endpoint:    resendEndpoint,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver sends the envelope as a plain-text email. The envelope's external
// ID travels as an idempotency key so provider retries do not duplicate mail.
func (p *ResendTransport) Deliver(ctx context.Context, env Envelope) error {
	from := p.fromAddress
	if p.fromName != "" {
		from = fmt.Sprintf("%s <%s>", p.fromName, p.fromAddress)
	}

	payload := map[string]any{
		"from":    from,
		"to":      []string{env.To},
		"subject": env.Subject,
		"text":    env.Body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Idempotency-Key", env.ExternalID)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &errResp)

		msg := errResp.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("resend: %s", msg)
	}

	return nil
}

// Router dispatches each envelope to the transport registered for its channel.
type Router struct {
	routes   map[notification.Channel]Transport
	fallback Transport
}

// NewRouter creates a channel-routing transport. Channels without a route use
// fallback, or the simulated transport when fallback is nil.
func NewRouter(routes map[notification.Channel]Transport, fallback Transport) *Router {
	if fallback == nil {
		fallback = SimulatedTransport{}
	}
	return &Router{routes: routes, fallback: fallback}
}

// Deliver implements Transport.
func (r *Router) Deliver(ctx context.Context, env Envelope) error {
	if t, ok := r.routes[env.Channel]; ok && t != nil {
		return t.Deliver(ctx, env)
	}
	return r.fallback.Deliver(ctx, env)
}
