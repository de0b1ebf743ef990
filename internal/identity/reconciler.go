package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/twokinds/twokinds-api/internal/database"
	"github.com/twokinds/twokinds-api/internal/models"
	"go.uber.org/zap"
)

// ExternalIdentity is the user info supplied by an OAuth/OIDC provider after
// a successful sign-in. Provider-issued IDs vary in shape across providers,
// so email is the only field treated as a natural key.
type ExternalIdentity struct {
	ID       string
	Email    string
	Name     string
	Image    string
	Provider string
}

// IdentityError indicates an external identity that cannot be mapped to an
// internal user. It is not retryable without re-authentication.
type IdentityError struct {
	Reason string
}

func (e *IdentityError) Error() string {
	return "identity error: " + e.Reason
}

// Reconciler maps an external identity to exactly one internal user record
type Reconciler interface {
	Reconcile(ctx context.Context, ident ExternalIdentity) (*models.User, error)
}

// DatabaseReconciler is the production Reconciler backed by the users table
type DatabaseReconciler struct {
	users  database.UserStore
	logger *zap.Logger
}

// NewReconciler creates a database-backed reconciler
func NewReconciler(users database.UserStore, logger *zap.Logger) *DatabaseReconciler {
	return &DatabaseReconciler{users: users, logger: logger}
}

var _ Reconciler = (*DatabaseReconciler)(nil)

// Reconcile finds or creates the user for an external identity.
//
// Existing users are refreshed on every login: name and image are taken from
// the incoming identity only when non-empty, so a provider that omits them
// never blanks stored values. A missing email fails with IdentityError.
// Concurrent first logins for the same email may both reach the insert; the
// users.email unique constraint picks the winner and the loser re-queries,
// so the constraint violation never surfaces to the caller.
func (r *DatabaseReconciler) Reconcile(ctx context.Context, ident ExternalIdentity) (*models.User, error) {
	if ident.Email == "" {
		return nil, &IdentityError{Reason: "external identity has no email"}
	}

	user, err := r.users.GetByEmail(ctx, ident.Email)
	if err == nil {
		return r.refresh(ctx, user, ident)
	}
	if !database.IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	now := time.Now()
	provider := ident.Provider
	if provider == "" {
		provider = "oauth"
	}
	newUser := &models.User{
		Email:       ident.Email,
		Name:        ident.Name,
		Image:       ident.Image,
		Provider:    provider,
		Role:        models.RoleUser,
		LastLogin:   now,
		Preferences: models.Preferences{},
	}

	if err := r.users.Create(ctx, newUser); err != nil {
		if database.IsUniqueViolation(err) {
			// Lost the first-login race; the winner's row is authoritative.
			winner, qerr := r.users.GetByEmail(ctx, ident.Email)
			if qerr != nil {
				return nil, fmt.Errorf("failed to load user after insert race: %w", qerr)
			}
			r.logger.Debug("user_insert_race_recovered",
				zap.String("email", ident.Email),
				zap.Int64("user_id", winner.ID),
			)
			return r.refresh(ctx, winner, ident)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Info("user_created",
		zap.Int64("user_id", newUser.ID),
		zap.String("provider", provider),
	)

	return newUser, nil
}

// refresh updates login-derived fields on an existing user. Update failures
// are logged but do not fail the login; the caller still gets a valid user.
func (r *DatabaseReconciler) refresh(ctx context.Context, user *models.User, ident ExternalIdentity) (*models.User, error) {
	if ident.Name != "" {
		user.Name = ident.Name
	}
	if ident.Image != "" {
		user.Image = ident.Image
	}
	user.LastLogin = time.Now()

	if err := r.users.UpdateLogin(ctx, user); err != nil {
		r.logger.Warn("failed_to_refresh_user_login",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
	}

	return user, nil
}
