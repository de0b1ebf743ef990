package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/twokinds/twokinds-api/internal/database"
	"github.com/twokinds/twokinds-api/internal/queue"
)

// JobProcessor handles queued background jobs: persisting audit events and
// sweeping expired rate limit windows.
type JobProcessor struct {
	auditRepo     database.AuditEventStore
	rateLimitRepo database.RateLimitStore
	jobQueue      queue.JobQueue // For re-enqueueing jobs with delays
}

// NewJobProcessor creates a new job processor
func NewJobProcessor(
	auditRepo database.AuditEventStore,
	rateLimitRepo database.RateLimitStore,
	jobQueue queue.JobQueue,
) *JobProcessor {
	return &JobProcessor{
		auditRepo:     auditRepo,
		rateLimitRepo: rateLimitRepo,
		jobQueue:      jobQueue,
	}
}

// ProcessAuditEventJob persists one audit event
func (p *JobProcessor) ProcessAuditEventJob(ctx context.Context, job *queue.Job) error {
	if job.Audit == nil {
		return fmt.Errorf("audit payload is required for audit event job")
	}

	if err := p.auditRepo.Create(ctx, job.Audit); err != nil {
		return fmt.Errorf("failed to persist audit event: %w", err)
	}

	log.Printf("Persisted audit event %s (action=%s)", job.Audit.ID, job.Audit.Action)
	return nil
}

// AuditRetention is how long persisted audit events are kept before the
// periodic purge removes them.
const AuditRetention = 90 * 24 * time.Hour

// ProcessRateLimitPurgeJob deletes rate limit rows whose windows have
// expired, then trims audit events past retention.
func (p *JobProcessor) ProcessRateLimitPurgeJob(ctx context.Context, job *queue.Job) error {
	purged, err := p.rateLimitRepo.PurgeExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to purge expired rate limits: %w", err)
	}

	if purged > 0 {
		log.Printf("Purged %d expired rate limit window(s)", purged)
	}

	trimmed, err := p.auditRepo.DeleteOlderThan(ctx, time.Now().Add(-AuditRetention))
	if err != nil {
		return fmt.Errorf("failed to trim audit events: %w", err)
	}

	if trimmed > 0 {
		log.Printf("Trimmed %d audit event(s) past retention", trimmed)
	}
	return nil
}

// ProcessJob processes a job based on its type
func (p *JobProcessor) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	// Check if job should be processed now (respect NotBefore)
	if !job.ShouldProcess() {
		if job.IsExpired() {
			log.Printf("Job %s expired (NotAfter: %v), discarding", job.ID, job.NotAfter)
			if ackErr := msg.Ack(); ackErr != nil {
				log.Printf("Failed to ack expired job: %v", ackErr)
			}
			return nil
		}
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeAuditEvent:
		if err := p.ProcessAuditEventJob(ctx, job); err != nil {
			return p.handleJobError(ctx, msg, job, err, "audit event")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeRateLimitPurge:
		if err := p.ProcessRateLimitPurgeJob(ctx, job); err != nil {
			// The next scheduled purge covers the same rows, so a failed
			// sweep goes to the DLQ instead of retrying.
			if nackErr := msg.Nack(false); nackErr != nil {
				log.Printf("Failed to nack purge job: %v", nackErr)
			}
			return fmt.Errorf("purge failed: %w", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack purge job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError retries failed jobs with a delayed re-enqueue, falling
// back to the DLQ once retries are exhausted.
func (p *JobProcessor) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error, jobType string) error {
	if job.CanRetry() && p.jobQueue != nil {
		retryDelay := retryBackoff(job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		delayedJob := &queue.Job{
			ID:         job.ID,
			Type:       job.Type,
			UserID:     job.UserID,
			SayingID:   job.SayingID,
			Audit:      job.Audit,
			NotBefore:  &notBefore,
			NotAfter:   job.NotAfter,
			Metadata:   job.Metadata,
			CreatedAt:  job.CreatedAt,
			RetryCount: job.RetryCount + 1,
			MaxRetries: job.MaxRetries,
		}

		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job before re-enqueue: %v", ackErr)
		}

		if enqueueErr := p.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
			log.Printf("Failed to re-enqueue %s job %s: %v", jobType, job.ID, enqueueErr)
			return fmt.Errorf("failed to re-enqueue: %w", enqueueErr)
		}

		log.Printf("%s job %s failed (attempt %d/%d): %v, retrying at %v",
			jobType, job.ID, job.RetryCount+1, job.MaxRetries, err, notBefore)
		return nil
	}

	// Max retries exceeded, send to DLQ
	log.Printf("%s job %s failed after %d retries: %v, sending to DLQ", jobType, job.ID, job.MaxRetries, err)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}

// retryBackoff returns the delay before the given retry attempt
func retryBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 6 {
		attempt = 6
	}
	return 5 * time.Second * time.Duration(1<<uint(attempt))
}
