package sayings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/twokinds/twokinds-api/internal/database"
	"github.com/twokinds/twokinds-api/internal/models"
	"github.com/twokinds/twokinds-api/internal/ratelimit"
	"go.uber.org/zap"
)

// LikeResult is the post-toggle like state of a saying for the caller
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
	// Changed is false when an explicit action was already satisfied and
	// the request was a no-op.
	Changed bool `json:"changed"`
}

// ToggleLike sets the caller's like state on a saying.
//
// With LikeActionToggle the state is inverted. An explicit LikeActionLike
// or LikeActionUnlike is idempotent: a request for the state the caller is
// already in succeeds as a no-op without consuming like quota. Two
// concurrent likes race on the (user_id, saying_id) unique constraint; the
// loser observes the winner's row and degrades to a no-op.
func (s *Service) ToggleLike(ctx context.Context, userID, sayingID int64, action models.LikeAction) (*LikeResult, error) {
	if _, err := s.sayings.GetByID(ctx, sayingID); err != nil {
		if database.IsNotFound(err) {
			return nil, ErrSayingNotFound
		}
		return nil, fmt.Errorf("failed to get saying: %w", err)
	}

	liked := true
	if _, err := s.likes.Get(ctx, userID, sayingID); err != nil {
		if !database.IsNotFound(err) {
			return nil, fmt.Errorf("failed to get like: %w", err)
		}
		liked = false
	}

	wantLiked := !liked
	switch action {
	case models.LikeActionLike:
		wantLiked = true
	case models.LikeActionUnlike:
		wantLiked = false
	case models.LikeActionToggle:
	default:
		return nil, &ValidationError{Field: "action", Message: "must be \"like\", \"unlike\", or omitted"}
	}

	if wantLiked == liked {
		return s.likeResult(ctx, userID, sayingID, liked, false)
	}

	if wantLiked {
		created, err := s.like(ctx, userID, sayingID)
		if err != nil {
			return nil, err
		}
		return s.likeResult(ctx, userID, sayingID, true, created)
	}

	removed, err := s.likes.Delete(ctx, userID, sayingID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove like: %w", err)
	}
	if removed {
		s.audit.Record(ctx, &models.AuditEvent{
			UserID: &userID,
			Action: models.AuditActionSayingUnliked,
			Detail: map[string]any{"saying_id": sayingID},
		})
	}
	// removed=false means a concurrent unlike got there first; the caller
	// still ends up in the state it asked for.
	return s.likeResult(ctx, userID, sayingID, false, removed)
}

// like inserts the like row and charges quota. It reports false without
// error when a concurrent like won the insert race; the saying is liked
// either way and the loser consumes no quota.
func (s *Service) like(ctx context.Context, userID, sayingID int64) (bool, error) {
	if err := s.checkLimit(ctx, userID, ratelimit.ActionLikeSaying); err != nil {
		return false, err
	}

	like := &models.Like{UserID: userID, SayingID: sayingID}
	if err := s.likes.Create(ctx, like); err != nil {
		if database.IsUniqueViolation(err) {
			s.logger.Debug("like_insert_race_recovered",
				zap.Int64("user_id", userID),
				zap.Int64("saying_id", sayingID),
			)
			return false, nil
		}
		return false, fmt.Errorf("failed to create like: %w", err)
	}

	s.limiter.RecordAction(ctx, ratelimit.Check{
		Identifier: strconv.FormatInt(userID, 10),
		Action:     ratelimit.ActionLikeSaying,
	})
	s.audit.Record(ctx, &models.AuditEvent{
		UserID: &userID,
		Action: models.AuditActionSayingLiked,
		Detail: map[string]any{"saying_id": sayingID},
	})
	return true, nil
}

func (s *Service) likeResult(ctx context.Context, userID, sayingID int64, liked, changed bool) (*LikeResult, error) {
	count, err := s.likes.CountBySaying(ctx, sayingID)
	if err != nil {
		return nil, fmt.Errorf("failed to count likes: %w", err)
	}
	return &LikeResult{Liked: liked, LikeCount: count, Changed: changed}, nil
}
