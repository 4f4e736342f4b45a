package notification

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the delivery status of a log entry.
type Status string

// Pending, Delivered and Retrying are part of the taxonomy but the dispatcher
// only ever produces Sent or Failed.
const (
	StatusPending   Status = "PENDING"
	StatusSent      Status = "SENT"
	StatusDelivered Status = "DELIVERED"
	StatusFailed    Status = "FAILED"
	StatusRetrying  Status = "RETRYING"
)

// LogEntry is the immutable audit record of one dispatch attempt.
type LogEntry struct {
	ID                string
	MessageID         string
	RecipientID       string
	RecipientName     string
	RecipientEmail    string
	RecipientPhone    string
	Category          Category
	Content           string
	Channel           Channel
	Status            Status
	SentAt            time.Time
	DeliveredAt       *time.Time
	ErrorMessage      string
	ExternalMessageID string
}

// View projects the entry to its wire representation.
func (e *LogEntry) View() LogEntryView {
	v := LogEntryView{
		ID:                e.ID,
		MessageID:         e.MessageID,
		UserID:            e.RecipientID,
		UserName:          e.RecipientName,
		UserEmail:         e.RecipientEmail,
		UserPhone:         e.RecipientPhone,
		MessageCategory:   e.Category,
		MessageContent:    e.Content,
		Channel:           e.Channel,
		Status:            e.Status,
		SentAt:            LocalTime{e.SentAt},
		ErrorMessage:      e.ErrorMessage,
		ExternalMessageID: e.ExternalMessageID,
	}
	if e.DeliveredAt != nil {
		v.DeliveredAt = &LocalTime{*e.DeliveredAt}
	}
	return v
}

// LogEntryView is the stable field set exposed to API clients.
type LogEntryView struct {
	ID                string     `json:"id"`
	MessageID         string     `json:"messageId"`
	UserID            string     `json:"userId"`
	UserName          string     `json:"userName"`
	UserEmail         string     `json:"userEmail"`
	UserPhone         string     `json:"userPhone"`
	MessageCategory   Category   `json:"messageCategory"`
	MessageContent    string     `json:"messageContent"`
	Channel           Channel    `json:"channel"`
	Status            Status     `json:"status"`
	SentAt            LocalTime  `json:"sentAt"`
	DeliveredAt       *LocalTime `json:"deliveredAt,omitempty"`
	ErrorMessage      string     `json:"errorMessage,omitempty"`
	ExternalMessageID string     `json:"externalMessageId,omitempty"`
}

// Views projects a slice of entries, preserving order.
func Views(entries []*LogEntry) []LogEntryView {
	out := make([]LogEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.View())
	}
	return out
}

// LocalTimeLayout is the zone-less date-time format used on the wire.
const LocalTimeLayout = "2006-01-02T15:04:05.999999999"

// LocalTime marshals as a local date-time without zone information.
type LocalTime struct {
	time.Time
}

// MarshalJSON implements json.Marshaler.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.Format(LocalTimeLayout) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *LocalTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(LocalTimeLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("parsing local time %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}
