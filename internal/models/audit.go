package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit event actions recorded by the async audit sink.
const (
	AuditActionSayingCreated      = "saying_created"
	AuditActionSayingDeleted      = "saying_deleted"
	AuditActionSayingLiked        = "saying_liked"
	AuditActionSayingUnliked      = "saying_unliked"
	AuditActionUserLogin          = "user_login"
	AuditActionModerationRejected = "moderation_rejected"
	AuditActionRateLimited        = "rate_limited"
)

// AuditEvent is an application event persisted asynchronously by the worker.
// Events are fire-and-forget: a failure to record one never affects the
// request that produced it.
type AuditEvent struct {
	ID        uuid.UUID      `json:"id"`
	UserID    *int64         `json:"user_id,omitempty"`
	Action    string         `json:"action"`
	ClientIP  string         `json:"client_ip,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
