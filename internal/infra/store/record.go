package store

import (
	"time"

	"fanout/internal/domain/notification"
)

// record is the serialized row shared by the Redis and Supabase backends.
// Timestamps are RFC 3339 with nanoseconds in UTC.
type record struct {
	ID                string  `json:"id"`
	MessageID         string  `json:"message_id"`
	UserID            string  `json:"user_id"`
	UserName          string  `json:"user_name"`
	UserEmail         string  `json:"user_email"`
	UserPhone         string  `json:"user_phone"`
	MessageCategory   string  `json:"message_category"`
	MessageContent    string  `json:"message_content"`
	Channel           string  `json:"channel"`
	Status            string  `json:"status"`
	SentAt            string  `json:"sent_at"`
	DeliveredAt       *string `json:"delivered_at"`
	ErrorMessage      *string `json:"error_message"`
	ExternalMessageID *string `json:"external_message_id"`
}

func toRecord(e *notification.LogEntry) record {
	r := record{
		ID:              e.ID,
		MessageID:       e.MessageID,
		UserID:          e.RecipientID,
		UserName:        e.RecipientName,
		UserEmail:       e.RecipientEmail,
		UserPhone:       e.RecipientPhone,
		MessageCategory: string(e.Category),
		MessageContent:  e.Content,
		Channel:         string(e.Channel),
		Status:          string(e.Status),
		SentAt:          e.SentAt.UTC().Format(time.RFC3339Nano),
	}
	if e.DeliveredAt != nil {
		at := e.DeliveredAt.UTC().Format(time.RFC3339Nano)
		r.DeliveredAt = &at
	}
	if e.ErrorMessage != "" {
		r.ErrorMessage = &e.ErrorMessage
	}
	if e.ExternalMessageID != "" {
		r.ExternalMessageID = &e.ExternalMessageID
	}
	return r
}

func (r *record) toEntry() *notification.LogEntry {
	e := &notification.LogEntry{
		ID:             r.ID,
		MessageID:      r.MessageID,
		RecipientID:    r.UserID,
		RecipientName:  r.UserName,
		RecipientEmail: r.UserEmail,
		RecipientPhone: r.UserPhone,
		Category:       notification.Category(r.MessageCategory),
		Content:        r.MessageContent,
		Channel:        notification.Channel(r.Channel),
		Status:         notification.Status(r.Status),
	}
	if t, err := time.Parse(time.RFC3339Nano, r.SentAt); err == nil {
		e.SentAt = t.Local()
	}
	if r.DeliveredAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *r.DeliveredAt); err == nil {
			at := t.Local()
			e.DeliveredAt = &at
		}
	}
	if r.ErrorMessage != nil {
		e.ErrorMessage = *r.ErrorMessage
	}
	if r.ExternalMessageID != nil {
		e.ExternalMessageID = *r.ExternalMessageID
	}
	return e
}
