package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fanout/internal/domain/notification"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding every log entry, keyed by entry ID.
const DefaultRedisKey = "fanout:audit:entries"

var _ notification.AuditStore = (*RedisStore)(nil)

// RedisStore keeps log entries as JSON values in a single Redis hash.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, addr, password string, db int, key string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return NewRedisStoreWithClient(client, key), nil
}

// NewRedisStoreWithClient wraps an existing client. An empty key selects DefaultRedisKey.
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Save writes entry under its ID, replacing any previous value.
func (s *RedisStore) Save(ctx context.Context, e *notification.LogEntry) error {
	if e == nil || e.ID == "" {
		return errors.New("log entry id is required")
	}
	b, err := json.Marshal(toRecord(e))
	if err != nil {
		return fmt.Errorf("encoding log entry: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, e.ID, b).Err(); err != nil {
		return fmt.Errorf("saving log entry %s: %w", e.ID, err)
	}
	return nil
}

// FindAllOrderedBySentDesc returns every entry, newest first.
func (s *RedisStore) FindAllOrderedBySentDesc(ctx context.Context) ([]*notification.LogEntry, error) {
	return s.load(ctx, func(*record) bool { return true })
}

// FindByRecipient returns the recipient's entries, newest first.
func (s *RedisStore) FindByRecipient(ctx context.Context, recipientID string) ([]*notification.LogEntry, error) {
	return s.load(ctx, func(r *record) bool { return r.UserID == recipientID })
}

// load snapshots the hash with HVALS and orders client-side.
func (s *RedisStore) load(ctx context.Context, keep func(*record) bool) ([]*notification.LogEntry, error) {
	vals, err := s.client.HVals(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("loading log entries: %w", err)
	}

	out := make([]*notification.LogEntry, 0, len(vals))
	for _, v := range vals {
		var r record
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, fmt.Errorf("decoding log entry: %w", err)
		}
		if !keep(&r) {
			continue
		}
		out = append(out, r.toEntry())
	}
	notification.SortBySentDesc(out)
	return out, nil
}
