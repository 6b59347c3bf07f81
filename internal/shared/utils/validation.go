package utils

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Size limits (in bytes)
const (
	MaxMessageSize = 1 * 1024 * 1024 // single websocket frame or posted message
	MaxQueryLength = 256
)

// String length limits
const (
	MaxIDLength   = 128
	MaxNameLength = 256
)

// SafeIDPattern allows alphanumeric, hyphens, underscores
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// strictPolicy strips all markup. bluemonday policies are safe for concurrent use.
var strictPolicy = bluemonday.StrictPolicy()

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field (VM ids, session ids, workspace ids)
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateQuery validates a free-text picker query
func ValidateQuery(query string) error {
	return ValidateString(query, "query", 0, MaxQueryLength, false)
}

// SanitizeName strips markup from a display name and trims it to MaxNameLength.
// Display names can arrive from deep links, so they are never trusted as HTML.
func SanitizeName(name string) string {
	clean := strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(name)))
	if utf8.RuneCountInString(clean) > MaxNameLength {
		clean = string([]rune(clean)[:MaxNameLength])
	}
	return clean
}
