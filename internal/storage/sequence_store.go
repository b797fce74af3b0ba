package storage

import (
	"context"
	"time"
)

// SequenceRecord is the persisted per-event sequence state. A record exists
// if and only if at least one invite/update/cancel has been sent for the
// event identity.
type SequenceRecord struct {
	EventID    string    `json:"event_id"`
	EventName  string    `json:"event_name"`
	Sequence   int       `json:"sequence"`
	LastSentAt time.Time `json:"last_sent_at"`
}

// SequenceStore is the source of truth for calendar-object versioning.
// Operations on the same event identity are serialized by the lifecycle
// coordinator; the store guarantees the increment in Bump is atomic.
type SequenceStore interface {
	// Get returns the record for eventID, or ErrNotFound.
	Get(ctx context.Context, eventID string) (*SequenceRecord, error)
	// Create inserts a record with sequence 0. Inserting an existing
	// identity is a no-op.
	Create(ctx context.Context, eventID, eventName string) error
	// Bump atomically increments the sequence and returns the new value.
	// Returns ErrNotFound if no record exists.
	Bump(ctx context.Context, eventID string) (int, error)
	// Remove deletes the record. Removing an absent identity is a no-op.
	Remove(ctx context.Context, eventID string) error
	// NameOf returns the cached display name for eventID, or ErrNotFound.
	NameOf(ctx context.Context, eventID string) (string, error)
}
