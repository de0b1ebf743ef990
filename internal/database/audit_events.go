package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twokinds/twokinds-api/internal/models"
)

// AuditEventRepository persists audit events written by the worker
type AuditEventRepository struct {
	db *DB
}

// NewAuditEventRepository creates a new audit event repository
func NewAuditEventRepository(db *DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

// Create inserts an audit event
func (r *AuditEventRepository) Create(ctx context.Context, event *models.AuditEvent) error {
	detailJSON, err := json.Marshal(event.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal detail: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, user_id, action, client_ip, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.Action,
		event.ClientIP,
		detailJSON,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit event: %w", err)
	}

	return nil
}

// DeleteOlderThan removes audit events created before the cutoff and
// returns the number removed. Used by the worker's retention sweep.
func (r *AuditEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM audit_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
