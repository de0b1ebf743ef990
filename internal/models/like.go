package models

import "time"

// LikeAction is an optional explicit target state for a like toggle.
type LikeAction string

const (
	// LikeActionToggle flips the current state.
	LikeActionToggle LikeAction = ""
	// LikeActionLike sets the state to liked; a no-op if already liked.
	LikeActionLike LikeAction = "like"
	// LikeActionUnlike sets the state to not liked; a no-op if not liked.
	LikeActionUnlike LikeAction = "unlike"
)

// Like expresses a user's endorsement of a saying. At most one row exists
// per (UserID, SayingID) pair, enforced by a database uniqueness constraint.
type Like struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	SayingID  int64     `json:"saying_id"`
	CreatedAt time.Time `json:"created_at"`
}
