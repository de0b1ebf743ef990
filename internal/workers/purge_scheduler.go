package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/twokinds/twokinds-api/internal/queue"
	"go.uber.org/zap"
)

// DefaultPurgeInterval is how often expired rate limit windows are swept
const DefaultPurgeInterval = time.Hour

// PurgeScheduler periodically enqueues rate limit purge jobs
type PurgeScheduler struct {
	jobQueue queue.JobQueue
	interval time.Duration
	logger   *zap.Logger
}

// NewPurgeScheduler creates a new purge scheduler
func NewPurgeScheduler(jobQueue queue.JobQueue, interval time.Duration, logger *zap.Logger) *PurgeScheduler {
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	return &PurgeScheduler{
		jobQueue: jobQueue,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the scheduling loop until ctx is cancelled
func (s *PurgeScheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.schedulePurge(ctx); err != nil {
				s.logger.Warn("failed_to_schedule_purge_job", zap.Error(err))
			}
		}
	}
}

// schedulePurge enqueues one purge job. The job expires before the next
// tick so a backed-up queue never accumulates stale sweeps.
func (s *PurgeScheduler) schedulePurge(ctx context.Context) error {
	job := queue.NewJob(queue.JobTypeRateLimitPurge, nil, nil)
	notAfter := time.Now().Add(s.interval)
	job.NotAfter = &notAfter

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue purge job: %w", err)
	}

	s.logger.Debug("scheduled_purge_job", zap.String("job_id", job.ID.String()))
	return nil
}
