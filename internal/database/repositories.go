package database

import (
	"context"
	"time"

	"github.com/twokinds/twokinds-api/internal/models"
)

// UserStore defines the user repository operations consumed by services.
// The interface enables mock implementations in tests.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLogin(ctx context.Context, user *models.User) error
	UpdatePreferences(ctx context.Context, id int64, prefs models.Preferences) (*models.User, error)
}

// SayingStore defines the saying repository operations consumed by services
type SayingStore interface {
	Create(ctx context.Context, saying *models.Saying) error
	GetByID(ctx context.Context, id int64) (*models.Saying, error)
	GetViewByID(ctx context.Context, id, viewerID int64) (*models.SayingView, error)
	ListViews(ctx context.Context, viewerID int64, page, pageSize int) ([]*models.SayingView, int, error)
	Delete(ctx context.Context, id int64) error
}

// LikeStore defines the like repository operations consumed by services
type LikeStore interface {
	Get(ctx context.Context, userID, sayingID int64) (*models.Like, error)
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, userID, sayingID int64) (bool, error)
	CountBySaying(ctx context.Context, sayingID int64) (int, error)
}

// IntroStore defines intro lookup operations consumed by services
type IntroStore interface {
	List(ctx context.Context) ([]*models.Intro, error)
	GetByID(ctx context.Context, id int64) (*models.Intro, error)
}

// TypeStore defines saying-type lookup operations consumed by services
type TypeStore interface {
	List(ctx context.Context) ([]*models.SayingType, error)
	GetByID(ctx context.Context, id int64) (*models.SayingType, error)
	Create(ctx context.Context, t *models.SayingType) error
}

// RateLimitStore defines the durable counter operations consumed by the
// rate limiter
type RateLimitStore interface {
	Get(ctx context.Context, identifier, action string) (*models.RateLimitRecord, error)
	Create(ctx context.Context, record *models.RateLimitRecord) error
	Increment(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	DeleteByKey(ctx context.Context, identifier, action string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuditEventStore defines the audit sink operations consumed by the worker
type AuditEventStore interface {
	Create(ctx context.Context, event *models.AuditEvent) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserStore       = (*UserRepository)(nil)
	_ SayingStore     = (*SayingRepository)(nil)
	_ LikeStore       = (*LikeRepository)(nil)
	_ IntroStore      = (*IntroRepository)(nil)
	_ TypeStore       = (*TypeRepository)(nil)
	_ RateLimitStore  = (*RateLimitRepository)(nil)
	_ AuditEventStore = (*AuditEventRepository)(nil)
)
