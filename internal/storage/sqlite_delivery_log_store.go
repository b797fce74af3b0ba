package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteDeliveryLogStore implements DeliveryLogStore backed by SQLite.
type SQLiteDeliveryLogStore struct {
	db *sql.DB
}

// NewSQLiteDeliveryLogStore returns a new SQLiteDeliveryLogStore.
func NewSQLiteDeliveryLogStore(db *sql.DB) *SQLiteDeliveryLogStore {
	return &SQLiteDeliveryLogStore{db: db}
}

// LogDelivery inserts a delivery record into the database.
func (s *SQLiteDeliveryLogStore) LogDelivery(ctx context.Context, entry DeliveryLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO delivery_log (trigger_kind, method, recipient, subject, status, error_msg, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.TriggerKind, entry.Method, entry.Recipient, entry.Subject,
		entry.Status, entry.ErrorMsg, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting delivery log: %w", err)
	}
	return nil
}

// ListDeliveries returns the most recent entries ordered by created_at descending.
func (s *SQLiteDeliveryLogStore) ListDeliveries(ctx context.Context, limit int) ([]DeliveryLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trigger_kind, method, recipient, subject, status, error_msg, created_at
		FROM delivery_log
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying delivery log: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			err = fmt.Errorf("closing rows: %w", cerr)
		}
	}()

	var entries []DeliveryLogEntry
	for rows.Next() {
		var e DeliveryLogEntry
		if err := rows.Scan(&e.ID, &e.TriggerKind, &e.Method, &e.Recipient,
			&e.Subject, &e.Status, &e.ErrorMsg, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning delivery log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery log rows: %w", err)
	}
	return entries, nil
}

// PruneOlderThan deletes entries created before cutoff.
func (s *SQLiteDeliveryLogStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM delivery_log WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning delivery log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return n, nil
}
