// Package moderation screens user-submitted text before it is persisted.
// Screening is advisory and fails open: when the upstream classifier is
// unreachable or unconfigured, content is treated as safe rather than
// blocking writes on a third-party outage.
package moderation

import "context"

// Input is one piece of text to screen. Context names where the text came
// from (for example "saying" or "type_name") and is used only for logging.
type Input struct {
	Text    string
	Context string
}

// Result is a moderation verdict. Reason and Categories are populated only
// when IsSafe is false; Reason is safe to show to the end user.
type Result struct {
	IsSafe     bool
	Reason     string
	Categories []string
	Confidence float64
}

// ContentModerator decides whether text is acceptable for publication
type ContentModerator interface {
	Moderate(ctx context.Context, input Input) (Result, error)
}

// NullModerator approves everything. Used when no moderation provider is
// configured.
type NullModerator struct{}

func (NullModerator) Moderate(context.Context, Input) (Result, error) {
	return Result{IsSafe: true}, nil
}

var _ ContentModerator = NullModerator{}
