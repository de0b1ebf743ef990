package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/twokinds/twokinds-api/internal/models"
)

// RateLimitRepository handles rate limit record operations. The
// (identifier, action) unique constraint guarantees at most one record per
// key; concurrent writers racing on insert recover by re-reading.
type RateLimitRepository struct {
	db *DB
}

// NewRateLimitRepository creates a new rate limit repository
func NewRateLimitRepository(db *DB) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// Get retrieves the record for an (identifier, action) pair, or nil when
// none exists
func (r *RateLimitRepository) Get(ctx context.Context, identifier, action string) (*models.RateLimitRecord, error) {
	record := &models.RateLimitRecord{}
	query := `
		SELECT id, identifier, action, count, window_start, expires_at, created_at, updated_at
		FROM rate_limits
		WHERE identifier = $1 AND action = $2
	`

	err := r.db.QueryRowContext(ctx, query, identifier, action).Scan(
		&record.ID,
		&record.Identifier,
		&record.Action,
		&record.Count,
		&record.WindowStart,
		&record.ExpiresAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit record: %w", err)
	}

	return record, nil
}

// Create inserts a fresh record with count=1 for a new window
func (r *RateLimitRepository) Create(ctx context.Context, record *models.RateLimitRecord) error {
	query := `
		INSERT INTO rate_limits (identifier, action, count, window_start, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		record.Identifier,
		record.Action,
		record.Count,
		record.WindowStart,
		record.ExpiresAt,
		now,
		now,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)

	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("failed to create rate limit record: %w", err)
	}

	return nil
}

// Increment bumps the count on a live record
func (r *RateLimitRepository) Increment(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE rate_limits SET count = count + 1, updated_at = $2 WHERE id = $1`,
		id, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to increment rate limit record: %w", err)
	}
	return nil
}

// Delete removes a record by id
func (r *RateLimitRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rate_limits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rate limit record: %w", err)
	}
	return nil
}

// DeleteByKey removes the record for an (identifier, action) pair
func (r *RateLimitRepository) DeleteByKey(ctx context.Context, identifier, action string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM rate_limits WHERE identifier = $1 AND action = $2`,
		identifier, action,
	)
	if err != nil {
		return fmt.Errorf("failed to delete rate limit record: %w", err)
	}
	return nil
}

// PurgeExpired deletes all records whose window has elapsed and returns
// the number removed
func (r *RateLimitRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rate_limits WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired rate limit records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
