package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fanout/internal/domain/notification"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

const tableName = "notification_logs"

var _ notification.AuditStore = (*SupabaseStore)(nil)

// SupabaseStore implements AuditStore on a Supabase notification_logs table.
type SupabaseStore struct {
	client *supa.Client
}

// NewSupabaseStore creates a new Supabase-backed audit store.
func NewSupabaseStore(supabaseURL, serviceKey string) (*SupabaseStore, error) {
	if supabaseURL == "" || serviceKey == "" {
		return nil, errors.New("supabase url and service key are required")
	}
	client, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

// Close is a no-op; the SDK holds no long-lived connections.
func (s *SupabaseStore) Close() error { return nil }

// Save upserts the entry on its id column.
func (s *SupabaseStore) Save(ctx context.Context, e *notification.LogEntry) error {
	if e == nil || e.ID == "" {
		return errors.New("log entry id is required")
	}
	_, _, err := s.client.From(tableName).Insert(toRecord(e), true, "id", "minimal", "").Execute()
	if err != nil {
		return fmt.Errorf("upserting log entry %s: %w", e.ID, err)
	}
	return nil
}

// historyPageSize matches the default PostgREST max-rows of a Supabase project.
const historyPageSize = 1000

// FindAllOrderedBySentDesc returns every entry, newest first.
func (s *SupabaseStore) FindAllOrderedBySentDesc(ctx context.Context) ([]*notification.LogEntry, error) {
	return s.fetch(ctx, func() *postgrest.FilterBuilder {
		return s.client.From(tableName).Select("*", "", false)
	})
}

// FindByRecipient returns the recipient's entries, newest first.
func (s *SupabaseStore) FindByRecipient(ctx context.Context, recipientID string) ([]*notification.LogEntry, error) {
	return s.fetch(ctx, func() *postgrest.FilterBuilder {
		return s.client.From(tableName).Select("*", "", false).Eq("user_id", recipientID)
	})
}

// fetch reads every page of the query built by base.
func (s *SupabaseStore) fetch(ctx context.Context, base func() *postgrest.FilterBuilder) ([]*notification.LogEntry, error) {
	rows, err := readPages(ctx, historyPageSize, func(offset, limit int) ([]record, error) {
		data, _, err := base().
			Order("sent_at", &postgrest.OrderOpts{Ascending: false}).
			Order("id", &postgrest.OrderOpts{Ascending: true}).
			Range(offset, offset+limit-1, "").
			Execute()
		if err != nil {
			return nil, fmt.Errorf("listing log entries: %w", err)
		}
		var page []record
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("parsing log entries: %w", err)
		}
		return page, nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*notification.LogEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntry()
	}
	// Postgres timestamp precision can differ from ours; reapply the canonical order.
	notification.SortBySentDesc(out)
	return out, nil
}

// readPages calls page with increasing offsets until it returns no rows.
// The offset advances by the rows actually returned, so a server-side cap
// smaller than size shortens pages without dropping rows.
func readPages(ctx context.Context, size int, page func(offset, limit int) ([]record, error)) ([]record, error) {
	var all []record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := page(len(all), size)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return all, nil
		}
		all = append(all, rows...)
	}
}
