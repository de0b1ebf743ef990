// Package audit records user-visible actions for later review. Events are
// published to the job queue and persisted by the worker, keeping the
// request path free of audit-table writes.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/twokinds/twokinds-api/internal/models"
	"github.com/twokinds/twokinds-api/internal/queue"
	"go.uber.org/zap"
)

// Sink accepts audit events. Record is fire-and-forget: implementations
// must never fail the calling request over an audit problem.
type Sink interface {
	Record(ctx context.Context, event *models.AuditEvent)
}

// NopSink discards all events
type NopSink struct{}

func (NopSink) Record(context.Context, *models.AuditEvent) {}

var _ Sink = NopSink{}

// QueueSink publishes events as jobs for the worker to persist
type QueueSink struct {
	queue  queue.JobQueue
	logger *zap.Logger
}

// NewQueueSink creates a sink over the given job queue
func NewQueueSink(q queue.JobQueue, logger *zap.Logger) *QueueSink {
	return &QueueSink{queue: q, logger: logger}
}

var _ Sink = (*QueueSink)(nil)

// Record enqueues the event. Failures are logged and dropped.
func (s *QueueSink) Record(ctx context.Context, event *models.AuditEvent) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	job := queue.NewJob(queue.JobTypeAuditEvent, event.UserID, nil)
	job.Audit = event

	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.Warn("audit_event_dropped",
			zap.String("action", event.Action),
			zap.Error(err),
		)
	}
}
