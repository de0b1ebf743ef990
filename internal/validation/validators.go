package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/twokinds/twokinds-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("like_action", validateLikeAction); err != nil {
		panic(fmt.Sprintf("failed to register like_action validator: %v", err))
	}
}

// validateLikeAction validates that a string is a valid LikeAction value.
// The empty string is valid and means toggle.
func validateLikeAction(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	switch models.LikeAction(value) {
	case models.LikeActionToggle, models.LikeActionLike, models.LikeActionUnlike:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateLikeAction validates a LikeAction string value
func ValidateLikeAction(value string) error {
	switch models.LikeAction(value) {
	case models.LikeActionToggle, models.LikeActionLike, models.LikeActionUnlike:
		return nil
	default:
		return fmt.Errorf("invalid action: %s (must be 'like', 'unlike', or omitted)", value)
	}
}
