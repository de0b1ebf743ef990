package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/twokinds/twokinds-api/internal/database"
	"github.com/twokinds/twokinds-api/internal/models"
	"go.uber.org/zap"
)

// DatabaseLimiter is the production Limiter backed by the rate_limits table.
// One row per (identifier, action) holds the live window's counter; expired
// rows are replaced in place on the next RecordAction and swept in bulk by
// the worker's purge job.
type DatabaseLimiter struct {
	store  database.RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

// NewDatabaseLimiter creates a limiter over the given store
func NewDatabaseLimiter(store database.RateLimitStore, logger *zap.Logger) *DatabaseLimiter {
	return &DatabaseLimiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

var _ Limiter = (*DatabaseLimiter)(nil)

// CheckLimit reports whether the action may proceed. Store errors allow the
// action: losing a few counter reads is cheaper than turning a database
// outage into a site-wide write freeze.
func (l *DatabaseLimiter) CheckLimit(ctx context.Context, check Check) Result {
	rule := check.EffectiveRule()
	now := l.now()

	record, err := l.store.Get(ctx, check.Identifier, check.Action)
	if err != nil {
		l.logger.Warn("rate_limit_check_failed",
			zap.String("identifier", check.Identifier),
			zap.String("action", check.Action),
			zap.Error(err),
		)
		return Result{Allowed: true, Limit: rule.Limit, Remaining: rule.Limit, ResetAt: now.Add(rule.Window)}
	}

	if record == nil {
		return Result{Allowed: true, Limit: rule.Limit, Remaining: rule.Limit, ResetAt: now.Add(rule.Window)}
	}

	if record.Expired(now) {
		// Opportunistic cleanup; the worker's purge job catches the rest.
		if err := l.store.Delete(ctx, record.ID); err != nil {
			l.logger.Debug("rate_limit_stale_delete_failed",
				zap.String("identifier", check.Identifier),
				zap.String("action", check.Action),
				zap.Error(err),
			)
		}
		return Result{Allowed: true, Limit: rule.Limit, Remaining: rule.Limit, ResetAt: now.Add(rule.Window)}
	}

	if record.Count >= rule.Limit {
		wait := record.ExpiresAt.Sub(now)
		return Result{
			Allowed:      false,
			Limit:        rule.Limit,
			Remaining:    0,
			ResetAt:      record.ExpiresAt,
			RetryMessage: fmt.Sprintf("Rate limit exceeded. Try again in %s.", formatDuration(wait)),
		}
	}

	return Result{
		Allowed:   true,
		Limit:     rule.Limit,
		Remaining: rule.Limit - record.Count,
		ResetAt:   record.ExpiresAt,
	}
}

// RecordAction commits one unit of quota for a completed action. Errors are
// logged and swallowed; an uncounted action is an accepted cost.
func (l *DatabaseLimiter) RecordAction(ctx context.Context, check Check) {
	now := l.now()

	record, err := l.store.Get(ctx, check.Identifier, check.Action)
	if err != nil {
		l.recordFailed(check, err)
		return
	}

	if record != nil && !record.Expired(now) {
		if err := l.store.Increment(ctx, record.ID); err != nil {
			l.recordFailed(check, err)
		}
		return
	}

	if record != nil {
		// Expired window; clear the stale row before starting a fresh one.
		if err := l.store.Delete(ctx, record.ID); err != nil {
			l.recordFailed(check, err)
			return
		}
	}

	if err := l.insertFresh(ctx, check, now); err != nil {
		l.recordFailed(check, err)
	}
}

// insertFresh starts a new window with count 1. A concurrent recorder may
// insert first; the (identifier, action) unique constraint detects that and
// the loser increments the winner's row instead.
func (l *DatabaseLimiter) insertFresh(ctx context.Context, check Check, now time.Time) error {
	rule := check.EffectiveRule()
	record := &models.RateLimitRecord{
		Identifier:  check.Identifier,
		Action:      check.Action,
		Count:       1,
		WindowStart: now,
		ExpiresAt:   now.Add(rule.Window),
	}

	err := l.store.Create(ctx, record)
	if err == nil {
		return nil
	}
	if !database.IsUniqueViolation(err) {
		return err
	}

	winner, err := l.store.Get(ctx, check.Identifier, check.Action)
	if err != nil {
		return err
	}
	if winner == nil {
		return fmt.Errorf("rate limit record vanished after insert race")
	}
	return l.store.Increment(ctx, winner.ID)
}

func (l *DatabaseLimiter) recordFailed(check Check, err error) {
	l.logger.Warn("rate_limit_record_failed",
		zap.String("identifier", check.Identifier),
		zap.String("action", check.Action),
		zap.Error(err),
	)
}
