package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateSessionID creates a standardized, human-readable planning session ID.
// Format: plan-{plant}-{8charHexUUID}
//
// Example:
//   - Input: plant="CL"
//   - Output: "plan-cl-a3f8e2b1"
//
// The generated IDs are:
//   - Short enough for log lines and CLI output
//   - Traceable to the plant that ran the plan
//   - Globally unique via UUID suffix
func GenerateSessionID(plant string) string {
	return "plan-" + strings.ToLower(strings.TrimSpace(plant)) + "-" + generateShortUUID()
}

// generateShortUUID creates an 8-character hex string from a UUID.
// This provides sufficient uniqueness while keeping IDs compact.
func generateShortUUID() string {
	id := uuid.New()
	// Remove hyphens and take first 8 characters
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
