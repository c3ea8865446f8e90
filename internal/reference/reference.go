// Package reference generates opaque identifiers for payment intents and
// claim jobs.
package reference

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// References are 16 random bytes, hex-encoded to 32 characters.
const referenceBytes = 16

var referencePattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

// New returns a fresh 128-bit reference.
func New() (string, error) {
	raw := make([]byte, referenceBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// Valid reports whether s is a well-formed reference.
func Valid(s string) bool {
	return referencePattern.MatchString(s)
}

// MemoTag builds the on-chain memo for an intent: "<kind>-<reference>". The
// settlement matcher searches for this exact string in transaction logs.
func MemoTag(kind, ref string) string {
	return kind + "-" + ref
}

// NewJobID returns a UUID for a queued claim job.
func NewJobID() string {
	return uuid.NewString()
}
