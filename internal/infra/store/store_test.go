package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fanout/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 7, 1, 10, 0, 0, 0, time.Local)

func entry(id, user string, offset time.Duration, ok bool) *notification.LogEntry {
	e := &notification.LogEntry{
		ID:             id,
		MessageID:      "msg-1",
		RecipientID:    user,
		RecipientName:  "Name " + user,
		RecipientEmail: user + "@email.com",
		RecipientPhone: "+1-555-0101",
		Category:       notification.CategorySports,
		Content:        "Breaking: Home team wins the final!",
		Channel:        notification.ChannelEmail,
		SentAt:         base.Add(offset),
	}
	if ok {
		at := e.SentAt.Add(time.Millisecond)
		e.Status = notification.StatusSent
		e.DeliveredAt = &at
		e.ExternalMessageID = "EMAIL-0011aabb"
	} else {
		e.Status = notification.StatusFailed
		e.ErrorMessage = "Invalid email address format"
	}
	return e
}

func entryIDs(es []*notification.LogEntry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

// runAuditStoreSuite checks the behaviour every backend must share.
func runAuditStoreSuite(t *testing.T, s notification.AuditStore) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		es, err := s.FindAllOrderedBySentDesc(ctx)
		require.NoError(t, err)
		assert.Empty(t, es)
	})

	t.Run("save and order", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, entry("b", "u1", 0, true)))
		require.NoError(t, s.Save(ctx, entry("c", "u2", time.Second, false)))
		require.NoError(t, s.Save(ctx, entry("a", "u1", 0, false)))
		require.NoError(t, s.Save(ctx, entry("d", "u1", 2*time.Second, true)))

		es, err := s.FindAllOrderedBySentDesc(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "c", "a", "b"}, entryIDs(es))

		mine, err := s.FindByRecipient(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "a", "b"}, entryIDs(mine))

		none, err := s.FindByRecipient(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("fields round trip", func(t *testing.T) {
		es, err := s.FindByRecipient(ctx, "u2")
		require.NoError(t, err)
		require.Len(t, es, 1)

		got, want := es[0], entry("c", "u2", time.Second, false)
		assert.Equal(t, want.MessageID, got.MessageID)
		assert.Equal(t, want.RecipientName, got.RecipientName)
		assert.Equal(t, want.RecipientEmail, got.RecipientEmail)
		assert.Equal(t, want.RecipientPhone, got.RecipientPhone)
		assert.Equal(t, want.Category, got.Category)
		assert.Equal(t, want.Content, got.Content)
		assert.Equal(t, want.Channel, got.Channel)
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, want.ErrorMessage, got.ErrorMessage)
		assert.True(t, want.SentAt.Equal(got.SentAt))
		assert.Nil(t, got.DeliveredAt)
		assert.Empty(t, got.ExternalMessageID)

		sent, err := s.FindByRecipient(ctx, "u1")
		require.NoError(t, err)
		require.NotNil(t, sent[0].DeliveredAt)
		assert.True(t, base.Add(2*time.Second+time.Millisecond).Equal(*sent[0].DeliveredAt))
		assert.Equal(t, "EMAIL-0011aabb", sent[0].ExternalMessageID)
	})

	t.Run("save overwrites by id", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, entry("a", "u1", 0, true)))

		es, err := s.FindAllOrderedBySentDesc(ctx)
		require.NoError(t, err)
		assert.Len(t, es, 4)
		for _, e := range es {
			if e.ID == "a" {
				assert.Equal(t, notification.StatusSent, e.Status)
				assert.Empty(t, e.ErrorMessage)
			}
		}
	})

	t.Run("concurrent saves", func(t *testing.T) {
		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.Save(ctx, entry(fmt.Sprintf("p-%02d", i), "u3", time.Duration(i)*time.Microsecond, true))
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		es, err := s.FindByRecipient(ctx, "u3")
		require.NoError(t, err)
		assert.Len(t, es, 20)
		assert.Equal(t, "p-19", es[0].ID)
	})

	t.Run("missing id is rejected", func(t *testing.T) {
		assert.Error(t, s.Save(ctx, &notification.LogEntry{}))
	})
}

func TestMemoryStore(t *testing.T) {
	runAuditStoreSuite(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, entry("a", "u1", 0, true)))

	es, err := s.FindAllOrderedBySentDesc(ctx)
	require.NoError(t, err)
	es[0].Status = notification.StatusFailed
	*es[0].DeliveredAt = time.Time{}

	again, err := s.FindAllOrderedBySentDesc(ctx)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusSent, again[0].Status)
	assert.False(t, again[0].DeliveredAt.IsZero())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "fanout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	runAuditStoreSuite(t, s)
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fanout.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, entry("a", "u1", 0, true)))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	es, err := reopened.FindAllOrderedBySentDesc(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, entryIDs(es))
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore(" ")
	assert.Error(t, err)
}

// Set FANOUT_TEST_REDIS_ADDR to run against a live server.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("FANOUT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FANOUT_TEST_REDIS_ADDR not set")
	}

	key := "fanout:test:" + uuid.NewString()
	s, err := NewRedisStore(context.Background(), addr, "", 0, key)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.client.Del(context.Background(), key).Err()
		_ = s.Close()
	})

	runAuditStoreSuite(t, s)
}

func TestRedisStore_ConnectFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisStore(ctx, "127.0.0.1:1", "", 0, "")
	assert.Error(t, err)
}

func TestNewRedisStoreWithClient_DefaultKey(t *testing.T) {
	s := NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	defer s.Close()
	assert.Equal(t, DefaultRedisKey, s.key)
}

// Set FANOUT_TEST_SUPABASE_URL and FANOUT_TEST_SUPABASE_KEY to run against a
// project with an empty notification_logs table.
func TestSupabaseStore(t *testing.T) {
	url, key := os.Getenv("FANOUT_TEST_SUPABASE_URL"), os.Getenv("FANOUT_TEST_SUPABASE_KEY")
	if url == "" || key == "" {
		t.Skip("FANOUT_TEST_SUPABASE_URL / FANOUT_TEST_SUPABASE_KEY not set")
	}

	s, err := NewSupabaseStore(url, key)
	require.NoError(t, err)
	runAuditStoreSuite(t, s)
}

func TestNewSupabaseStore_RequiresCredentials(t *testing.T) {
	_, err := NewSupabaseStore("", "")
	assert.Error(t, err)
}

func TestRecordRoundTrip(t *testing.T) {
	in := entry("x", "u1", 1500*time.Microsecond, true)
	r := toRecord(in)
	out := r.toEntry()

	assert.Equal(t, in.ID, out.ID)
	assert.True(t, in.SentAt.Equal(out.SentAt))
	assert.True(t, in.DeliveredAt.Equal(*out.DeliveredAt))
	assert.Equal(t, in.ExternalMessageID, out.ExternalMessageID)
	assert.Nil(t, r.ErrorMessage)
}
