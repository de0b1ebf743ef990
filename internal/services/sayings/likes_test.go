package sayings

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/twokinds/twokinds-api/internal/models"
	"github.com/twokinds/twokinds-api/internal/ratelimit"
)

// likedFixture returns a fixture with one saying already created by user 1
func likedFixture(t *testing.T) (*fixture, int64) {
	t.Helper()
	f := newFixture()
	view, err := f.service.CreateSaying(context.Background(), 1, validInput())
	if err != nil {
		t.Fatalf("CreateSaying() error = %v", err)
	}
	// Reset collaborator recordings so like tests observe only their own calls.
	f.calls.order = nil
	f.limiter.recorded = nil
	f.sink.events = nil
	return f, view.ID
}

func TestToggleLike_Toggle(t *testing.T) {
	t.Parallel()
	f, sayingID := likedFixture(t)
	ctx := context.Background()

	result, err := f.service.ToggleLike(ctx, 7, sayingID, models.LikeActionToggle)
	if err != nil {
		t.Fatalf("first ToggleLike() error = %v", err)
	}
	if !result.Liked || result.LikeCount != 1 || !result.Changed {
		t.Errorf("first toggle = %+v, want liked with count 1", result)
	}

	result, err = f.service.ToggleLike(ctx, 7, sayingID, models.LikeActionToggle)
	if err != nil {
		t.Fatalf("second ToggleLike() error = %v", err)
	}
	if result.Liked || result.LikeCount != 0 || !result.Changed {
		t.Errorf("second toggle = %+v, want unliked with count 0", result)
	}

	if actions := f.sink.actions(); len(actions) != 2 ||
		actions[0] != models.AuditActionSayingLiked ||
		actions[1] != models.AuditActionSayingUnliked {
		t.Errorf("audit actions = %v, want [saying_liked saying_unliked]", actions)
	}
}

func TestToggleLike_ExplicitLikeIsIdempotent(t *testing.T) {
	t.Parallel()
	f, sayingID := likedFixture(t)
	ctx := context.Background()

	if _, err := f.service.ToggleLike(ctx, 7, sayingID, models.LikeActionLike); err != nil {
		t.Fatalf("first like error = %v", err)
	}

	result, err := f.service.ToggleLike(ctx, 7, sayingID, models.LikeActionLike)
	if err != nil {
		t.Fatalf("repeat like error = %v", err)
	}
	if !result.Liked || result.Changed {
		t.Errorf("repeat like = %+v, want liked no-op", result)
	}
	if len(f.limiter.recorded) != 1 {
		t.Errorf("recorded quota = %v, want one like_saying (no-op must not charge)", f.limiter.recorded)
	}
}

func TestToggleLike_ExplicitUnlikeWhenNotLiked(t *testing.T) {
	t.Parallel()
	f, sayingID := likedFixture(t)

	result, err := f.service.ToggleLike(context.Background(), 7, sayingID, models.LikeActionUnlike)
	if err != nil {
		t.Fatalf("ToggleLike() error = %v", err)
	}
	if result.Liked || result.Changed {
		t.Errorf("unlike of unliked saying = %+v, want no-op", result)
	}
	if len(f.limiter.recorded) != 0 {
		t.Errorf("recorded quota = %v, want none", f.limiter.recorded)
	}
	if len(f.sink.events) != 0 {
		t.Errorf("audit events = %v, want none for no-op", f.sink.actions())
	}
}

func TestToggleLike_UnknownSaying(t *testing.T) {
	t.Parallel()
	f := newFixture()

	_, err := f.service.ToggleLike(context.Background(), 7, 99, models.LikeActionToggle)
	if !errors.Is(err, ErrSayingNotFound) {
		t.Errorf("ToggleLike() = %v, want ErrSayingNotFound", err)
	}
}

func TestToggleLike_InvalidAction(t *testing.T) {
	t.Parallel()
	f, sayingID := likedFixture(t)

	_, err := f.service.ToggleLike(context.Background(), 7, sayingID, models.LikeAction("boost"))
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Errorf("ToggleLike() = %v, want ValidationError", err)
	}
}

func TestToggleLike_RateLimited(t *testing.T) {
	t.Parallel()
	f, sayingID := likedFixture(t)
	f.limiter.deny[ratelimit.ActionLikeSaying] = true

	_, err := f.service.ToggleLike(context.Background(), 7, sayingID, models.LikeActionLike)
	var limitErr *RateLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("ToggleLike() = %v, want RateLimitError", err)
	}
	if len(f.likes.likes) != 0 {
		t.Error("like persisted despite denied rate limit")
	}
}

func TestToggleLike_InsertRaceDegradesToNoOp(t *testing.T) {
	t.Parallel()
	f, sayingID := likedFixture(t)
	// The like row does not exist at Get time but the insert collides, as
	// when two clients like simultaneously.
	f.likes.createErr = &pq.Error{Code: "23505", Constraint: "likes_user_saying_idx"}

	result, err := f.service.ToggleLike(context.Background(), 7, sayingID, models.LikeActionLike)
	if err != nil {
		t.Fatalf("ToggleLike() error = %v, want recovered race", err)
	}
	if !result.Liked {
		t.Error("Liked = false, want true after race recovery")
	}
	if result.Changed {
		t.Error("Changed = true, want false when the concurrent like won")
	}
	if len(f.limiter.recorded) != 0 {
		t.Errorf("recorded quota = %v, want none for lost race", f.limiter.recorded)
	}
}
