package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/twokinds/twokinds-api/internal/models"
)

// LikeRepository handles like database operations
type LikeRepository struct {
	db *DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Get retrieves the like for a (user, saying) pair, or a not-found error
// wrapping sql.ErrNoRows when none exists
func (r *LikeRepository) Get(ctx context.Context, userID, sayingID int64) (*models.Like, error) {
	like := &models.Like{}
	query := `
		SELECT id, user_id, saying_id, created_at
		FROM likes
		WHERE user_id = $1 AND saying_id = $2
	`

	err := r.db.QueryRowContext(ctx, query, userID, sayingID).Scan(
		&like.ID,
		&like.UserID,
		&like.SayingID,
		&like.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("like not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get like: %w", err)
	}

	return like, nil
}

// Create inserts a like row. The (user_id, saying_id) unique constraint is
// the source of truth for at-most-one-like; a unique violation is returned
// unwrapped so callers can treat it as already-liked.
func (r *LikeRepository) Create(ctx context.Context, like *models.Like) error {
	query := `
		INSERT INTO likes (user_id, saying_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		like.UserID,
		like.SayingID,
		time.Now(),
	).Scan(&like.ID, &like.CreatedAt)

	if err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("failed to create like: %w", err)
	}

	return nil
}

// Delete removes the like for a (user, saying) pair. Deleting an absent
// like is not an error; the returned bool reports whether a row was removed.
func (r *LikeRepository) Delete(ctx context.Context, userID, sayingID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE user_id = $1 AND saying_id = $2`, userID, sayingID)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// CountBySaying returns the number of likes on a saying
func (r *LikeRepository) CountBySaying(ctx context.Context, sayingID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE saying_id = $1`, sayingID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}
