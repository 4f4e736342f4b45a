package notification

import (
	"cmp"
	"context"
	"slices"
)

// Directory is the read-only recipient query the dispatcher depends on.
type Directory interface {
	// FindBySubscribedCategory returns every recipient subscribed to category.
	// Recipients are unique and the order is stable for the duration of the call.
	FindBySubscribedCategory(ctx context.Context, category Category) ([]Recipient, error)
}

// RecipientRepository adds the administrative operations on top of Directory.
// Implementations live in infra/directory/.
type RecipientRepository interface {
	Directory

	// FindByID returns the recipient or nil, nil when it does not exist.
	FindByID(ctx context.Context, id string) (*Recipient, error)
	FindAll(ctx context.Context) ([]Recipient, error)
	Count(ctx context.Context) (int, error)
	Save(ctx context.Context, r Recipient) error
	DeleteByID(ctx context.Context, id string) error
}

// AuditStore defines the contract for persisting log entries.
// Implementations live in infra/store/ and must tolerate concurrent Save calls.
type AuditStore interface {
	// Save persists the entry by its ID, overwriting any entry with the same ID.
	Save(ctx context.Context, entry *LogEntry) error

	// FindAllOrderedBySentDesc returns every entry, newest first, ties broken by ID.
	FindAllOrderedBySentDesc(ctx context.Context) ([]*LogEntry, error)

	// FindByRecipient returns the recipient's entries in the same order.
	FindByRecipient(ctx context.Context, recipientID string) ([]*LogEntry, error)
}

// SortBySentDesc orders entries newest first with ties broken by ascending ID.
// Every AuditStore applies it so backends agree on the total order.
func SortBySentDesc(entries []*LogEntry) {
	slices.SortStableFunc(entries, func(a, b *LogEntry) int {
		if c := b.SentAt.Compare(a.SentAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
