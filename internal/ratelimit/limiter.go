// Package ratelimit implements per-user, per-action request throttling over
// fixed time windows. Limits are advisory: any failure reading or writing
// the backing store resolves in the caller's favor so that a degraded
// database never blocks the write path.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Actions with dedicated rate limit rules. Any other action string falls
// back to DefaultRule.
const (
	ActionCreateSaying = "create_saying"
	ActionLikeSaying   = "like_saying"
	ActionCreateType   = "create_type"
)

// Rule is a fixed-window quota: at most Limit actions per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// DefaultRule applies to actions without a dedicated rule.
var DefaultRule = Rule{Limit: 10, Window: time.Hour}

var actionRules = map[string]Rule{
	ActionCreateSaying: {Limit: 10, Window: 24 * time.Hour},
	ActionLikeSaying:   {Limit: 100, Window: time.Hour},
	ActionCreateType:   {Limit: 5, Window: 24 * time.Hour},
}

// RuleFor returns the rule governing an action.
func RuleFor(action string) Rule {
	if rule, ok := actionRules[action]; ok {
		return rule
	}
	return DefaultRule
}

// Check identifies one throttled operation attempt.
type Check struct {
	// Identifier scopes the counter, normally the acting user's ID.
	Identifier string
	Action     string
	// Rule overrides the action's default quota when set.
	Rule *Rule
}

// EffectiveRule resolves the quota governing this check.
func (c Check) EffectiveRule() Rule {
	if c.Rule != nil {
		return *c.Rule
	}
	return RuleFor(c.Action)
}

// Result reports whether an action may proceed. When Allowed is false,
// RetryMessage is safe to show to the end user.
type Result struct {
	Allowed      bool
	Limit        int
	Remaining    int
	ResetAt      time.Time
	RetryMessage string
}

// Limiter throttles actions. CheckLimit is read-only and must be called
// before the action's side effects; RecordAction commits one unit of quota
// and is called only after the action succeeds, so rejected or failed
// attempts never consume quota.
type Limiter interface {
	CheckLimit(ctx context.Context, check Check) Result
	RecordAction(ctx context.Context, check Check)
}

// NullLimiter allows everything and records nothing. Used when rate
// limiting is disabled.
type NullLimiter struct{}

func (NullLimiter) CheckLimit(_ context.Context, check Check) Result {
	rule := check.EffectiveRule()
	return Result{Allowed: true, Limit: rule.Limit, Remaining: rule.Limit}
}

func (NullLimiter) RecordAction(context.Context, Check) {}

var _ Limiter = NullLimiter{}

// formatDuration renders a wait time the way it reads in an error message,
// rounding up so the user never retries too early.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	if d < time.Hour {
		minutes := int((d + time.Minute - 1) / time.Minute)
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := int((d + time.Hour - 1) / time.Hour)
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
