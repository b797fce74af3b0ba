// Package janitor runs the periodic delivery log retention job.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/tutorrio/icalsender/internal/storage"
)

const pruneInterval = 24 * time.Hour

// Janitor prunes delivery log entries older than the retention window using
// gocron.
type Janitor struct {
	cron      gocron.Scheduler
	log       storage.DeliveryLogStore
	retention time.Duration
	logger    *slog.Logger
}

// New creates a Janitor. retentionDays <= 0 disables pruning entirely.
func New(log storage.DeliveryLogStore, retentionDays int, logger *slog.Logger) (*Janitor, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}
	return &Janitor{
		cron:      cron,
		log:       log,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger.With("component", "janitor"),
	}, nil
}

// Start schedules the daily prune job and runs it once immediately so a
// long-stopped instance catches up on startup.
func (j *Janitor) Start() error {
	if j.retention <= 0 {
		j.logger.Info("delivery log retention disabled")
		return nil
	}

	_, err := j.cron.NewJob(
		gocron.DurationJob(pruneInterval),
		gocron.NewTask(j.prune),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("scheduling prune job: %w", err)
	}

	j.cron.Start()
	j.logger.Info("delivery log retention started", "retention", j.retention)
	return nil
}

// Stop shuts down the scheduler.
func (j *Janitor) Stop() error {
	return j.cron.Shutdown()
}

func (j *Janitor) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-j.retention)
	pruned, err := j.log.PruneOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("pruning delivery log failed", "error", err)
		return
	}
	if pruned > 0 {
		j.logger.Info("pruned delivery log entries", "count", pruned, "cutoff", cutoff)
	}
}
