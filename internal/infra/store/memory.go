// Package store provides AuditStore implementations.
package store

import (
	"context"
	"errors"
	"sync"

	"fanout/internal/domain/notification"
)

var _ notification.AuditStore = (*MemoryStore)(nil)

// MemoryStore keeps log entries in process memory. It is the default store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*notification.LogEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*notification.LogEntry)}
}

// Save stores a copy of entry, replacing any entry with the same ID.
func (s *MemoryStore) Save(ctx context.Context, entry *notification.LogEntry) error {
	if entry == nil || entry.ID == "" {
		return errors.New("log entry id is required")
	}
	c := copyEntry(entry)

	s.mu.Lock()
	s.entries[c.ID] = c
	s.mu.Unlock()
	return nil
}

// FindAllOrderedBySentDesc returns copies of every entry, newest first.
func (s *MemoryStore) FindAllOrderedBySentDesc(ctx context.Context) ([]*notification.LogEntry, error) {
	return s.collect(func(*notification.LogEntry) bool { return true }), nil
}

// FindByRecipient returns copies of the recipient's entries, newest first.
func (s *MemoryStore) FindByRecipient(ctx context.Context, recipientID string) ([]*notification.LogEntry, error) {
	return s.collect(func(e *notification.LogEntry) bool { return e.RecipientID == recipientID }), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) collect(keep func(*notification.LogEntry) bool) []*notification.LogEntry {
	s.mu.RLock()
	out := make([]*notification.LogEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, copyEntry(e))
		}
	}
	s.mu.RUnlock()

	notification.SortBySentDesc(out)
	return out
}

func copyEntry(e *notification.LogEntry) *notification.LogEntry {
	c := *e
	if e.DeliveredAt != nil {
		at := *e.DeliveredAt
		c.DeliveredAt = &at
	}
	return &c
}
