package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/twokinds/twokinds-api/internal/models"
)

// IntroRepository handles intro lookup-table operations
type IntroRepository struct {
	db *DB
}

// NewIntroRepository creates a new intro repository
func NewIntroRepository(db *DB) *IntroRepository {
	return &IntroRepository{db: db}
}

// List retrieves all intros ordered by id
func (r *IntroRepository) List(ctx context.Context) ([]*models.Intro, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, intro_text, created_at FROM intros ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query intros: %w", err)
	}
	defer rows.Close()

	var intros []*models.Intro
	for rows.Next() {
		intro := &models.Intro{}
		if err := rows.Scan(&intro.ID, &intro.IntroText, &intro.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan intro: %w", err)
		}
		intros = append(intros, intro)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating intros: %w", err)
	}

	return intros, nil
}

// GetByID retrieves an intro by ID
func (r *IntroRepository) GetByID(ctx context.Context, id int64) (*models.Intro, error) {
	intro := &models.Intro{}
	err := r.db.QueryRowContext(ctx, `SELECT id, intro_text, created_at FROM intros WHERE id = $1`, id).
		Scan(&intro.ID, &intro.IntroText, &intro.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("intro not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intro: %w", err)
	}

	return intro, nil
}

// Create inserts a new intro
func (r *IntroRepository) Create(ctx context.Context, intro *models.Intro) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO intros (intro_text, created_at) VALUES ($1, $2) RETURNING id, created_at`,
		intro.IntroText, time.Now(),
	).Scan(&intro.ID, &intro.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create intro: %w", err)
	}

	return nil
}

// TypeRepository handles saying-type lookup-table operations
type TypeRepository struct {
	db *DB
}

// NewTypeRepository creates a new type repository
func NewTypeRepository(db *DB) *TypeRepository {
	return &TypeRepository{db: db}
}

// List retrieves all saying types ordered by name
func (r *TypeRepository) List(ctx context.Context) ([]*models.SayingType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM saying_types ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query types: %w", err)
	}
	defer rows.Close()

	var types []*models.SayingType
	for rows.Next() {
		t := &models.SayingType{}
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan type: %w", err)
		}
		types = append(types, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating types: %w", err)
	}

	return types, nil
}

// GetByID retrieves a saying type by ID
func (r *TypeRepository) GetByID(ctx context.Context, id int64) (*models.SayingType, error) {
	t := &models.SayingType{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM saying_types WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("type not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get type: %w", err)
	}

	return t, nil
}

// Create inserts a new saying type. Names are not unique: concurrent
// creations of the same name both succeed.
func (r *TypeRepository) Create(ctx context.Context, t *models.SayingType) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO saying_types (name, created_at) VALUES ($1, $2) RETURNING id, created_at`,
		t.Name, time.Now(),
	).Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create type: %w", err)
	}

	return nil
}
