package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/HealthLane-PH/healthlane-web/internal/repository"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
	"github.com/HealthLane-PH/healthlane-web/pkg/metrics"
)

type OutboxCleanupConfig struct {
	Retention time.Duration
	Interval  time.Duration
	// StaleAfter is how long an event may sit in PROCESSING before it is
	// handed back to the processor.
	StaleAfter time.Duration
}

const defaultStaleAfter = 10 * time.Minute

// OutboxCleanupWorker deletes processed events older than the retention and
// releases claims left behind by a processor that died mid-batch. Failed
// events are kept for inspection.
type OutboxCleanupWorker struct {
	repo    repository.OutboxRepository
	config  OutboxCleanupConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, config OutboxCleanupConfig, logger *logger.Logger, metrics *metrics.Metrics) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		repo:    repo,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ReleaseStale(ctx); err != nil {
				w.logger.Error(err, "Failed to release stale outbox claims")
			}
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Failed to clean up outbox events")
			}
		}
	}
}

func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().UTC().Add(-w.config.Retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup outbox events: %w", err)
	}
	w.metrics.OutboxEventsCleaned.Add(float64(rows))

	if rows > 0 {
		w.logger.Info("Cleaned up outbox events", "count", rows, "before", cutoff)
	}
	return rows, nil
}

// ReleaseStale moves events stuck in PROCESSING back to PENDING. Handlers are
// idempotent per person, so a second delivery of an event that did complete
// is harmless.
func (w *OutboxCleanupWorker) ReleaseStale(ctx context.Context) (int64, error) {
	staleAfter := w.config.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	cutoff := w.now().UTC().Add(-staleAfter)

	rows, err := w.repo.ReleaseStaleClaims(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to release stale outbox claims: %w", err)
	}
	w.metrics.OutboxEventsReclaimed.Add(float64(rows))

	if rows > 0 {
		w.logger.Warn("Released stale outbox claims", "count", rows, "claimed_before", cutoff)
	}
	return rows, nil
}
