// Package store provides SQLite-backed persistence for conversations, the
// message queue, message history, and the maintenance audit log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/vendalia/opcenter/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id              TEXT PRIMARY KEY,
	customer_name   TEXT,
	channel_address TEXT NOT NULL UNIQUE,
	status          TEXT NOT NULL DEFAULT 'bot_attending',
	assigned_seller TEXT,
	fallback_mode   INTEGER NOT NULL DEFAULT 0,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS queue_entries (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	content         TEXT NOT NULL DEFAULT '',
	enqueued_at     TEXT NOT NULL,
	claim_token     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_queue_conversation ON queue_entries(conversation_id);
CREATE INDEX IF NOT EXISTS idx_queue_claim ON queue_entries(claim_token);
CREATE INDEX IF NOT EXISTS idx_queue_enqueued ON queue_entries(enqueued_at);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	sender_role     TEXT NOT NULL,
	content_type    TEXT NOT NULL DEFAULT 'text',
	content         TEXT NOT NULL DEFAULT '',
	delivery_status TEXT NOT NULL DEFAULT 'sent',
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

CREATE TABLE IF NOT EXISTS audit_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	action     TEXT NOT NULL,
	success    INTEGER NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`

// Store is the durable backing store. SQLite runs in WAL mode with a single
// writer connection; every exported mutation is atomic per invocation.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if necessary) the SQLite database at path.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	// A claim token is only meaningful inside one drain pass of one live
	// process. Any token still present at open time belongs to a pass that
	// died mid-flight; free its rows so they can be claimed again.
	if _, err := db.Exec(`UPDATE queue_entries SET claim_token = '' WHERE claim_token <> ''`); err != nil {
		db.Close()
		return nil, fmt.Errorf("release stale claims: %w", err)
	}

	s := &Store{
		db:  db,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func storageErr(op string, err error) error {
	return &model.StorageError{Op: op, Err: err}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNullString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}
