// Package directory provides recipient directory implementations.
package directory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"fanout/internal/domain/notification"
)

var _ notification.RecipientRepository = (*Memory)(nil)

// Memory is an in-memory recipient repository that preserves insertion order.
// Every read returns deep copies, so callers hold a stable snapshot.
type Memory struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]notification.Recipient
}

// NewMemory creates a repository seeded with the given recipients.
// Later entries with a duplicate ID replace earlier ones in place.
func NewMemory(recipients ...notification.Recipient) *Memory {
	m := &Memory{byID: make(map[string]notification.Recipient, len(recipients))}
	for _, r := range recipients {
		m.put(r)
	}
	return m
}

func (m *Memory) put(r notification.Recipient) {
	if _, exists := m.byID[r.ID]; !exists {
		m.order = append(m.order, r.ID)
	}
	m.byID[r.ID] = r.Clone()
}

// FindBySubscribedCategory returns subscribers of category in insertion order.
func (m *Memory) FindBySubscribedCategory(ctx context.Context, category notification.Category) ([]notification.Recipient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []notification.Recipient
	for _, id := range m.order {
		r := m.byID[id]
		if r.SubscribesTo(category) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// FindByID returns the recipient, or nil, nil when absent.
func (m *Memory) FindByID(ctx context.Context, id string) (*notification.Recipient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	c := r.Clone()
	return &c, nil
}

// FindAll returns every recipient in insertion order.
func (m *Memory) FindAll(ctx context.Context) ([]notification.Recipient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]notification.Recipient, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.byID[id].Clone())
	}
	return out, nil
}

// Count returns the number of recipients.
func (m *Memory) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order), nil
}

// Save inserts or replaces a recipient.
func (m *Memory) Save(ctx context.Context, r notification.Recipient) error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("recipient id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(r)
	return nil
}

// DeleteByID removes a recipient. Deleting an unknown ID is a no-op.
func (m *Memory) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return nil
	}
	delete(m.byID, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Replace swaps the whole content atomically.
func (m *Memory) Replace(recipients []notification.Recipient) {
	byID := make(map[string]notification.Recipient, len(recipients))
	order := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if _, exists := byID[r.ID]; !exists {
			order = append(order, r.ID)
		}
		byID[r.ID] = r.Clone()
	}

	m.mu.Lock()
	m.byID = byID
	m.order = order
	m.mu.Unlock()
}
