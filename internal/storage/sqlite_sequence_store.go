package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteSequenceStore implements SequenceStore backed by SQLite.
type SQLiteSequenceStore struct {
	db *sql.DB
}

// NewSQLiteSequenceStore returns a new SQLiteSequenceStore.
func NewSQLiteSequenceStore(db *sql.DB) *SQLiteSequenceStore {
	return &SQLiteSequenceStore{db: db}
}

// Get returns the sequence record for eventID, or ErrNotFound.
func (s *SQLiteSequenceStore) Get(ctx context.Context, eventID string) (*SequenceRecord, error) {
	var rec SequenceRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT event_id, event_name, seq_num, sent_at
		FROM ics_event_log
		WHERE event_id = ?`, eventID,
	).Scan(&rec.EventID, &rec.EventName, &rec.Sequence, &rec.LastSentAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sequence record %q: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying sequence record %q: %w", eventID, err)
	}
	return &rec, nil
}

// Create inserts a record at sequence 0. Existing identities are left
// untouched (idempotent insert).
func (s *SQLiteSequenceStore) Create(ctx context.Context, eventID, eventName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ics_event_log (event_id, event_name, seq_num, sent_at)
		VALUES (?, ?, 0, ?)
		ON CONFLICT (event_id) DO NOTHING`,
		eventID, eventName, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting sequence record %q: %w", eventID, err)
	}
	return nil
}

// Bump atomically increments the sequence number in a single UPDATE and
// returns the new value. A non-atomic read-then-write here would race with
// concurrent triggers for the same identity.
func (s *SQLiteSequenceStore) Bump(ctx context.Context, eventID string) (int, error) {
	var seq int
	err := s.db.QueryRowContext(ctx, `
		UPDATE ics_event_log
		SET seq_num = seq_num + 1, sent_at = ?
		WHERE event_id = ?
		RETURNING seq_num`,
		time.Now().UTC(), eventID,
	).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("sequence record %q: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("bumping sequence for %q: %w", eventID, err)
	}
	return seq, nil
}

// Remove deletes the record for eventID. Absent identities are a no-op; the
// identity is then free to restart at sequence 0.
func (s *SQLiteSequenceStore) Remove(ctx context.Context, eventID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM ics_event_log WHERE event_id = ?", eventID); err != nil {
		return fmt.Errorf("deleting sequence record %q: %w", eventID, err)
	}
	return nil
}

// NameOf returns the cached event display name, or ErrNotFound.
func (s *SQLiteSequenceStore) NameOf(ctx context.Context, eventID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT event_name FROM ics_event_log WHERE event_id = ?", eventID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("sequence record %q: %w", eventID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("querying event name for %q: %w", eventID, err)
	}
	return name, nil
}
