package content

import (
	"strings"

	"pulse/internal/models"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

// Sanitize removes unsafe HTML from user-submitted message content
// using a strict UGC policy.
func Sanitize(input string) string {
	return policy.Sanitize(input)
}

// PrepareMessage sanitizes message content and rejects input that is
// empty once markup and surrounding whitespace are stripped. Validation
// happens before any persistence attempt.
func PrepareMessage(input string) (string, error) {
	clean := strings.TrimSpace(Sanitize(input))
	if clean == "" {
		return "", models.ErrEmptyContent
	}
	return clean, nil
}
