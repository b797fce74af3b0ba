package storage

import (
	"context"
	"time"
)

// Delivery statuses recorded in the log.
const (
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
)

// DeliveryLogEntry records a single outbound message attempt.
type DeliveryLogEntry struct {
	ID          int64     `json:"id"`
	TriggerKind string    `json:"trigger_kind"`
	Method      string    `json:"method"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	Status      string    `json:"status"`
	ErrorMsg    string    `json:"error_msg"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeliveryLogStore persists outbound message attempts, successful or not.
type DeliveryLogStore interface {
	// LogDelivery records one message attempt.
	LogDelivery(ctx context.Context, entry DeliveryLogEntry) error
	// ListDeliveries returns the most recent entries, up to limit.
	ListDeliveries(ctx context.Context, limit int) ([]DeliveryLogEntry, error)
	// PruneOlderThan deletes entries created before cutoff and returns the
	// number of rows removed.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
