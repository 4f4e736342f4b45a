package notification

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is the topical label attached to a message.
type Category string

const (
	CategorySports  Category = "SPORTS"
	CategoryFinance Category = "FINANCE"
	CategoryMovies  Category = "MOVIES"
)

// Categories lists every recognized category in declaration order.
var Categories = []Category{CategorySports, CategoryFinance, CategoryMovies}

var categoryLabels = map[Category]string{
	CategorySports:  "Sports",
	CategoryFinance: "Finance",
	CategoryMovies:  "Movies",
}

// Label returns the human-readable name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// IsValid reports whether c is a recognized category.
func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory resolves a category from its wire value, case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown category: %q", s)
	}
	return c, nil
}

// Channel is a transport used to deliver a message to a recipient.
type Channel string

const (
	ChannelSMS   Channel = "SMS"
	ChannelEmail Channel = "EMAIL"
	ChannelPush  Channel = "PUSH"
)

// Channels lists every known channel in declaration order.
var Channels = []Channel{ChannelSMS, ChannelEmail, ChannelPush}

var channelLabels = map[Channel]string{
	ChannelSMS:   "SMS",
	ChannelEmail: "E-Mail",
	ChannelPush:  "Push Notification",
}

// Label returns the human-readable name of the channel.
func (c Channel) Label() string {
	if l, ok := channelLabels[c]; ok {
		return l
	}
	if c == "" {
		return "<none>"
	}
	return string(c)
}

// IsValid reports whether c is a known channel.
func (c Channel) IsValid() bool {
	_, ok := channelLabels[c]
	return ok
}

// ParseChannel resolves a channel from its wire value, case-insensitively.
func ParseChannel(s string) (Channel, error) {
	c := Channel(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("unknown channel: %q", s)
	}
	return c, nil
}

// Recipient is a subscriber known to the directory.
type Recipient struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Email      string     `json:"email" yaml:"email"`
	Phone      string     `json:"phone" yaml:"phone"`
	Categories []Category `json:"subscribedCategories" yaml:"categories"`
	Channels   []Channel  `json:"preferredChannels" yaml:"channels"`
}

// SubscribesTo reports whether the recipient wants messages in category c.
func (r *Recipient) SubscribesTo(c Category) bool {
	return slices.Contains(r.Categories, c)
}

// Prefers reports whether the recipient accepts delivery over ch.
func (r *Recipient) Prefers(ch Channel) bool {
	return slices.Contains(r.Channels, ch)
}

// CanReceive reports whether the (category, channel) pair is eligible for this recipient.
func (r *Recipient) CanReceive(c Category, ch Channel) bool {
	return r.SubscribesTo(c) && r.Prefers(ch)
}

// Clone returns a deep copy so later mutations do not leak into snapshots.
func (r Recipient) Clone() Recipient {
	r.Categories = slices.Clone(r.Categories)
	r.Channels = slices.Clone(r.Channels)
	return r
}

// Message is a single sanitized submission being fanned out.
type Message struct {
	ID        string
	Category  Category
	Content   string
	CreatedAt time.Time
}

// NewMessage builds a message with a fresh identifier.
func NewMessage(category Category, content string, createdAt time.Time) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Category:  category,
		Content:   content,
		CreatedAt: createdAt,
	}
}

// Outcome is the result of a single strategy send.
type Outcome struct {
	Success    bool
	Status     Status
	ExternalID string
	Error      string
	Timestamp  time.Time
}

// Succeeded builds a Sent outcome carrying the transport's message id.
func Succeeded(externalID string, at time.Time) Outcome {
	return Outcome{Success: true, Status: StatusSent, ExternalID: externalID, Timestamp: at}
}

// Failed builds a Failed outcome with the given error description.
func Failed(errMsg string, at time.Time) Outcome {
	return Outcome{Success: false, Status: StatusFailed, Error: errMsg, Timestamp: at}
}
