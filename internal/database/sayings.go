package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/twokinds/twokinds-api/internal/models"
)

// SayingRepository handles saying database operations
type SayingRepository struct {
	db *DB
}

// NewSayingRepository creates a new saying repository
func NewSayingRepository(db *DB) *SayingRepository {
	return &SayingRepository{db: db}
}

// Create creates a new saying
func (r *SayingRepository) Create(ctx context.Context, saying *models.Saying) error {
	query := `
		INSERT INTO sayings (intro_id, type_id, first_kind, second_kind, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		saying.IntroID,
		saying.TypeID,
		saying.FirstKind,
		saying.SecondKind,
		saying.UserID,
		now,
		now,
	).Scan(&saying.ID, &saying.CreatedAt, &saying.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create saying: %w", err)
	}

	return nil
}

// GetByID retrieves a saying by ID
func (r *SayingRepository) GetByID(ctx context.Context, id int64) (*models.Saying, error) {
	saying := &models.Saying{}
	query := `
		SELECT id, intro_id, type_id, first_kind, second_kind, user_id, created_at, updated_at
		FROM sayings
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&saying.ID,
		&saying.IntroID,
		&saying.TypeID,
		&saying.FirstKind,
		&saying.SecondKind,
		&saying.UserID,
		&saying.CreatedAt,
		&saying.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("saying not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saying: %w", err)
	}

	return saying, nil
}

// viewColumns selects a saying joined with its intro, type, like count,
// and whether the viewer has liked it. viewerID 0 means anonymous.
const viewColumns = `
	SELECT s.id, s.intro_id, s.type_id, s.first_kind, s.second_kind, s.user_id,
	       s.created_at, s.updated_at,
	       i.intro_text, t.name,
	       (SELECT COUNT(*) FROM likes l WHERE l.saying_id = s.id),
	       EXISTS (SELECT 1 FROM likes l WHERE l.saying_id = s.id AND l.user_id = $1)
	FROM sayings s
	JOIN intros i ON i.id = s.intro_id
	JOIN saying_types t ON t.id = s.type_id
`

// GetViewByID retrieves a saying joined with lookup rows and like state
func (r *SayingRepository) GetViewByID(ctx context.Context, id, viewerID int64) (*models.SayingView, error) {
	query := viewColumns + ` WHERE s.id = $2`

	view, err := scanSayingView(r.db.QueryRowContext(ctx, query, viewerID, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("saying not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saying view: %w", err)
	}

	return view, nil
}

// ListViews retrieves sayings newest first with pagination, joined with
// lookup rows and like state for the given viewer
func (r *SayingRepository) ListViews(ctx context.Context, viewerID int64, page, pageSize int) ([]*models.SayingView, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sayings`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sayings: %w", err)
	}

	offset := (page - 1) * pageSize
	query := viewColumns + ` ORDER BY s.created_at DESC, s.id DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, viewerID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sayings: %w", err)
	}
	defer rows.Close()

	var views []*models.SayingView
	for rows.Next() {
		view, err := scanSayingView(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan saying: %w", err)
		}
		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating sayings: %w", err)
	}

	return views, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSayingView(row rowScanner) (*models.SayingView, error) {
	view := &models.SayingView{}
	err := row.Scan(
		&view.ID,
		&view.IntroID,
		&view.TypeID,
		&view.FirstKind,
		&view.SecondKind,
		&view.UserID,
		&view.CreatedAt,
		&view.UpdatedAt,
		&view.IntroText,
		&view.TypeName,
		&view.LikeCount,
		&view.LikedByMe,
	)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Delete removes a saying and its likes. Likes are deleted first so a
// partial failure never leaves likes pointing at a missing saying.
func (r *SayingRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE saying_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete likes: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM sayings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete saying: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("saying not found: %w", sql.ErrNoRows)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	return nil
}
