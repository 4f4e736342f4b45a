package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf16"

	"fanout/internal/common"
)

// Content length bounds, in UTF-16 code units, checked before sanitization.
const (
	MinContentLength = 10
	MaxContentLength = 1000
)

// SendRequest is the API request payload for submitting a message.
type SendRequest struct {
	Category string  `json:"category" binding:"required"`
	Content  *string `json:"content" binding:"required"`
}

// CategoryInfo describes a category for clients.
type CategoryInfo struct {
	Value Category `json:"value"`
	Label string   `json:"label"`
}

// Service validates submissions and exposes the dispatcher and directory to
// the HTTP layer.
type Service struct {
	dispatcher *Dispatcher
	recipients RecipientRepository
}

// NewService creates a new notification service.
func NewService(dispatcher *Dispatcher, recipients RecipientRepository) *Service {
	return &Service{
		dispatcher: dispatcher,
		recipients: recipients,
	}
}

// Send validates the request and fans the message out to all subscribers.
func (s *Service) Send(ctx context.Context, req *SendRequest) ([]LogEntryView, error) {
	category, content, err := validateSendRequest(req)
	if err != nil {
		return nil, err
	}

	slog.Info("processing message", "category", category)

	views, err := s.dispatcher.Dispatch(ctx, category, content)
	if err != nil {
		return nil, err
	}

	slog.Info("message processed", "category", category, "notifications", len(views))
	return views, nil
}

func validateSendRequest(req *SendRequest) (Category, string, error) {
	var details []string

	category, err := ParseCategory(req.Category)
	if err != nil {
		details = append(details, fmt.Sprintf("category: Invalid category value. Valid options are: %s", validCategoryList()))
	}

	content := ""
	if req.Content == nil {
		details = append(details, "content: Content is required")
	} else {
		content = *req.Content
		if n := codeUnits(content); n < MinContentLength || n > MaxContentLength {
			details = append(details, fmt.Sprintf("content: Content must be between %d and %d characters", MinContentLength, MaxContentLength))
		}
	}

	if len(details) > 0 {
		return "", "", common.NewValidationError("Invalid request data: "+strings.Join(details, ", "), details...)
	}
	return category, content, nil
}

func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func validCategoryList() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// Categories returns the recognized categories with their labels.
func (s *Service) Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(Categories))
	for i, c := range Categories {
		out[i] = CategoryInfo{Value: c, Label: c.Label()}
	}
	return out
}

// History returns the notification history, optionally for one recipient.
func (s *Service) History(ctx context.Context, recipientID string) ([]LogEntryView, error) {
	if recipientID = strings.TrimSpace(recipientID); recipientID != "" {
		return s.dispatcher.HistoryFor(ctx, recipientID)
	}
	return s.dispatcher.History(ctx)
}

// ListRecipients returns every recipient in the directory.
func (s *Service) ListRecipients(ctx context.Context) ([]Recipient, error) {
	rs, err := s.recipients.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing recipients: %w", err)
	}
	return rs, nil
}

// GetRecipient retrieves a recipient by ID.
func (s *Service) GetRecipient(ctx context.Context, id string) (*Recipient, error) {
	r, err := s.recipients.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching recipient: %w", err)
	}
	if r == nil {
		return nil, common.NewNotFoundError("recipient", id)
	}
	return r, nil
}
