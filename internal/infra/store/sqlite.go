package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fanout/internal/domain/notification"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var sqliteSchema string

var _ notification.AuditStore = (*SQLiteStore)(nil)

// SQLiteStore persists log entries in a local SQLite database.
// Timestamps are stored as Unix microseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// Single writer; also keeps ":memory:" on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts entry by ID.
func (s *SQLiteStore) Save(ctx context.Context, e *notification.LogEntry) error {
	if e == nil || e.ID == "" {
		return errors.New("log entry id is required")
	}

	var delivered sql.NullInt64
	if e.DeliveredAt != nil {
		delivered = sql.NullInt64{Int64: e.DeliveredAt.UnixMicro(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification_logs(id, message_id, user_id, user_name, user_email, user_phone,
			message_category, message_content, channel, status, sent_at, delivered_at,
			error_message, external_message_id)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
			message_id=excluded.message_id, user_id=excluded.user_id, user_name=excluded.user_name,
			user_email=excluded.user_email, user_phone=excluded.user_phone,
			message_category=excluded.message_category, message_content=excluded.message_content,
			channel=excluded.channel, status=excluded.status, sent_at=excluded.sent_at,
			delivered_at=excluded.delivered_at, error_message=excluded.error_message,
			external_message_id=excluded.external_message_id`,
		e.ID, e.MessageID, e.RecipientID, e.RecipientName, e.RecipientEmail, e.RecipientPhone,
		string(e.Category), e.Content, string(e.Channel), string(e.Status), e.SentAt.UnixMicro(), delivered,
		nullStr(e.ErrorMessage), nullStr(e.ExternalMessageID),
	)
	if err != nil {
		return fmt.Errorf("saving log entry %s: %w", e.ID, err)
	}
	return nil
}

const sqliteSelect = `SELECT id, message_id, user_id, user_name, user_email, user_phone,
	message_category, message_content, channel, status, sent_at, delivered_at,
	error_message, external_message_id FROM notification_logs`

// FindAllOrderedBySentDesc returns every entry, newest first.
func (s *SQLiteStore) FindAllOrderedBySentDesc(ctx context.Context) ([]*notification.LogEntry, error) {
	return s.query(ctx, sqliteSelect+` ORDER BY sent_at DESC, id ASC`)
}

// FindByRecipient returns the recipient's entries, newest first.
func (s *SQLiteStore) FindByRecipient(ctx context.Context, recipientID string) ([]*notification.LogEntry, error) {
	return s.query(ctx, sqliteSelect+` WHERE user_id = ? ORDER BY sent_at DESC, id ASC`, recipientID)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]*notification.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying log entries: %w", err)
	}
	defer rows.Close()

	var out []*notification.LogEntry
	for rows.Next() {
		var (
			e                         notification.LogEntry
			category, channel, status string
			sentAt                    int64
			delivered                 sql.NullInt64
			errMsg, extID             sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.MessageID, &e.RecipientID, &e.RecipientName, &e.RecipientEmail,
			&e.RecipientPhone, &category, &e.Content, &channel, &status, &sentAt, &delivered,
			&errMsg, &extID); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		e.Category = notification.Category(category)
		e.Channel = notification.Channel(channel)
		e.Status = notification.Status(status)
		e.SentAt = time.UnixMicro(sentAt)
		if delivered.Valid {
			at := time.UnixMicro(delivered.Int64)
			e.DeliveredAt = &at
		}
		e.ErrorMessage = errMsg.String
		e.ExternalMessageID = extID.String
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating log entries: %w", err)
	}
	return out, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
