package sayings

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSayingNotFound indicates the requested saying does not exist
	ErrSayingNotFound = errors.New("saying not found")
	// ErrForbidden indicates the caller does not own the resource
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports rejected input. Message is safe to show to the
// end user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// RateLimitError indicates the caller exceeded the quota for an action
type RateLimitError struct {
	Action  string
	Message string
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return e.Message
}

// ModerationError indicates content was rejected by the moderation screen
type ModerationError struct {
	Reason     string
	Categories []string
}

func (e *ModerationError) Error() string {
	return e.Reason
}
