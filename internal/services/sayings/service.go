// Package sayings implements the content write path: creating, listing,
// deleting, and liking sayings. Writes pass through a fixed gate order of
// rate limit check, moderation screen, persist, then quota commit, so a
// rejected write never consumes quota.
package sayings

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/twokinds/twokinds-api/internal/audit"
	"github.com/twokinds/twokinds-api/internal/database"
	"github.com/twokinds/twokinds-api/internal/models"
	"github.com/twokinds/twokinds-api/internal/moderation"
	"github.com/twokinds/twokinds-api/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	// KindMinLength and KindMaxLength bound each kind statement and new
	// type names.
	KindMinLength = 3
	KindMaxLength = 100

	// DefaultPageSize and MaxPageSize bound feed pagination.
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Service coordinates saying writes across storage, rate limiting,
// moderation, and audit.
type Service struct {
	sayings   database.SayingStore
	likes     database.LikeStore
	intros    database.IntroStore
	types     database.TypeStore
	limiter   ratelimit.Limiter
	moderator moderation.ContentModerator
	audit     audit.Sink
	logger    *zap.Logger
}

// NewService creates the saying service
func NewService(
	sayingStore database.SayingStore,
	likeStore database.LikeStore,
	introStore database.IntroStore,
	typeStore database.TypeStore,
	limiter ratelimit.Limiter,
	moderator moderation.ContentModerator,
	auditSink audit.Sink,
	logger *zap.Logger,
) *Service {
	return &Service{
		sayings:   sayingStore,
		likes:     likeStore,
		intros:    introStore,
		types:     typeStore,
		limiter:   limiter,
		moderator: moderator,
		audit:     auditSink,
		logger:    logger,
	}
}

// CreateSayingInput is one saying submission. Exactly one of TypeID and
// NewTypeName must be set: TypeID references an existing type, NewTypeName
// creates one.
type CreateSayingInput struct {
	IntroID     int64
	TypeID      int64
	NewTypeName string
	FirstKind   string
	SecondKind  string
}

// CreateSaying validates, screens, and persists one saying.
//
// When the submission names a new type, the type row is inserted before the
// saying. A saying insert failure after that leaves the type row behind;
// the type is valid on its own, so the partial write stands rather than
// holding a transaction open across a moderation call.
func (s *Service) CreateSaying(ctx context.Context, userID int64, input CreateSayingInput) (*models.SayingView, error) {
	input.FirstKind = strings.TrimSpace(input.FirstKind)
	input.SecondKind = strings.TrimSpace(input.SecondKind)
	input.NewTypeName = strings.TrimSpace(input.NewTypeName)

	if err := validateKind("firstKind", input.FirstKind); err != nil {
		return nil, err
	}
	if err := validateKind("secondKind", input.SecondKind); err != nil {
		return nil, err
	}
	if input.TypeID == 0 && input.NewTypeName == "" {
		return nil, &ValidationError{Field: "typeId", Message: "a type is required"}
	}
	if input.TypeID != 0 && input.NewTypeName != "" {
		return nil, &ValidationError{Field: "typeId", Message: "provide either an existing type or a new type name, not both"}
	}
	if input.NewTypeName != "" {
		if err := validateKind("newTypeName", input.NewTypeName); err != nil {
			return nil, err
		}
	}

	if _, err := s.intros.GetByID(ctx, input.IntroID); err != nil {
		if database.IsNotFound(err) {
			return nil, &ValidationError{Field: "introId", Message: "unknown intro"}
		}
		return nil, fmt.Errorf("failed to look up intro: %w", err)
	}

	if err := s.checkLimit(ctx, userID, ratelimit.ActionCreateSaying); err != nil {
		return nil, err
	}
	if input.NewTypeName != "" {
		if err := s.checkLimit(ctx, userID, ratelimit.ActionCreateType); err != nil {
			return nil, err
		}
	}

	if err := s.moderate(ctx, userID, "saying", moderationText(input)); err != nil {
		return nil, err
	}

	typeID := input.TypeID
	if input.NewTypeName != "" {
		created, err := s.createType(ctx, userID, input.NewTypeName)
		if err != nil {
			return nil, err
		}
		typeID = created.ID
	} else {
		if _, err := s.types.GetByID(ctx, typeID); err != nil {
			if database.IsNotFound(err) {
				return nil, &ValidationError{Field: "typeId", Message: "unknown type"}
			}
			return nil, fmt.Errorf("failed to look up type: %w", err)
		}
	}

	saying := &models.Saying{
		IntroID:    input.IntroID,
		TypeID:     typeID,
		FirstKind:  input.FirstKind,
		SecondKind: input.SecondKind,
		UserID:     userID,
	}
	if err := s.sayings.Create(ctx, saying); err != nil {
		return nil, fmt.Errorf("failed to create saying: %w", err)
	}

	s.limiter.RecordAction(ctx, ratelimit.Check{
		Identifier: strconv.FormatInt(userID, 10),
		Action:     ratelimit.ActionCreateSaying,
	})

	s.logger.Info("saying_created",
		zap.Int64("saying_id", saying.ID),
		zap.Int64("user_id", userID),
	)
	s.audit.Record(ctx, &models.AuditEvent{
		UserID: &userID,
		Action: models.AuditActionSayingCreated,
		Detail: map[string]any{"saying_id": saying.ID},
	})

	view, err := s.sayings.GetViewByID(ctx, saying.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created saying: %w", err)
	}
	return view, nil
}

// createType inserts a new type and charges its quota. Duplicate names are
// tolerated; concurrent submitters each get their own row.
func (s *Service) createType(ctx context.Context, userID int64, name string) (*models.SayingType, error) {
	t := &models.SayingType{Name: name}
	if err := s.types.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create type: %w", err)
	}

	s.limiter.RecordAction(ctx, ratelimit.Check{
		Identifier: strconv.FormatInt(userID, 10),
		Action:     ratelimit.ActionCreateType,
	})

	s.logger.Info("type_created",
		zap.Int64("type_id", t.ID),
		zap.Int64("user_id", userID),
	)
	return t, nil
}

// List returns one feed page plus the total saying count. viewerID sets
// the LikedByMe flags; pass 0 for anonymous viewers.
func (s *Service) List(ctx context.Context, viewerID int64, page, pageSize int) ([]*models.SayingView, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	views, total, err := s.sayings.ListViews(ctx, viewerID, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sayings: %w", err)
	}
	return views, total, nil
}

// Get returns one saying with its like state for the viewer
func (s *Service) Get(ctx context.Context, id, viewerID int64) (*models.SayingView, error) {
	view, err := s.sayings.GetViewByID(ctx, id, viewerID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrSayingNotFound
		}
		return nil, fmt.Errorf("failed to get saying: %w", err)
	}
	return view, nil
}

// Delete removes a saying and its likes. Only the author or an admin may
// delete.
func (s *Service) Delete(ctx context.Context, id int64, userID int64, role string) error {
	saying, err := s.sayings.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return ErrSayingNotFound
		}
		return fmt.Errorf("failed to get saying: %w", err)
	}

	if saying.UserID != userID && role != models.RoleAdmin {
		return ErrForbidden
	}

	if err := s.sayings.Delete(ctx, id); err != nil {
		if database.IsNotFound(err) {
			return ErrSayingNotFound
		}
		return fmt.Errorf("failed to delete saying: %w", err)
	}

	s.logger.Info("saying_deleted",
		zap.Int64("saying_id", id),
		zap.Int64("user_id", userID),
	)
	s.audit.Record(ctx, &models.AuditEvent{
		UserID: &userID,
		Action: models.AuditActionSayingDeleted,
		Detail: map[string]any{"saying_id": id},
	})
	return nil
}

// checkLimit converts a denied rate limit check into a RateLimitError and
// audits the refusal.
func (s *Service) checkLimit(ctx context.Context, userID int64, action string) error {
	result := s.limiter.CheckLimit(ctx, ratelimit.Check{
		Identifier: strconv.FormatInt(userID, 10),
		Action:     action,
	})
	if result.Allowed {
		return nil
	}

	s.audit.Record(ctx, &models.AuditEvent{
		UserID: &userID,
		Action: models.AuditActionRateLimited,
		Detail: map[string]any{"limited_action": action},
	})
	return &RateLimitError{
		Action:  action,
		Message: result.RetryMessage,
		ResetAt: result.ResetAt,
	}
}

// moderate screens text and converts a flagged verdict into a
// ModerationError.
func (s *Service) moderate(ctx context.Context, userID int64, source string, text string) error {
	result, err := s.moderator.Moderate(ctx, moderation.Input{Text: text, Context: source})
	if err != nil {
		// Moderation is fail-open; an error here means a strict moderator
		// implementation, which still must not block the write.
		s.logger.Warn("moderation_error_ignored", zap.Error(err))
		return nil
	}
	if result.IsSafe {
		return nil
	}

	s.audit.Record(ctx, &models.AuditEvent{
		UserID: &userID,
		Action: models.AuditActionModerationRejected,
		Detail: map[string]any{
			"context":    source,
			"categories": result.Categories,
		},
	})
	return &ModerationError{Reason: result.Reason, Categories: result.Categories}
}

// moderationText joins the user-authored parts of a submission into one
// screening input.
func moderationText(input CreateSayingInput) string {
	parts := []string{input.FirstKind, input.SecondKind}
	if input.NewTypeName != "" {
		parts = append(parts, input.NewTypeName)
	}
	return strings.Join(parts, "\n")
}

func validateKind(field, value string) error {
	// Bounds count characters, not bytes, matching the handler layer's
	// min/max validator tags.
	length := utf8.RuneCountInString(value)
	if length < KindMinLength {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at least %d characters", KindMinLength)}
	}
	if length > KindMaxLength {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", KindMaxLength)}
	}
	return nil
}
