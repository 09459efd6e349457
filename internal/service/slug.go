package service

import (
	"regexp"
	"strings"

	"authservice/internal/apperror"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugSeparators   = regexp.MustCompile(`[\s-]+`)
)

// generateSlug derives a URL-safe slug from a display name: lower-case,
// strip anything outside [a-z0-9\s-], collapse whitespace/hyphen runs into a
// single hyphen, trim leading/trailing hyphens. An empty result is a
// validation error, never silently defaulted.
func generateSlug(name string) (string, error) {
	slug := strings.ToLower(name)
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "", apperror.Validation("INVALID_SLUG", "name does not produce a valid slug")
	}
	return slug, nil
}
