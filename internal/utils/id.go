package utils

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns a best-effort unique identifier.
func NewID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}

	// Fallback to timestamp if the random source is unavailable.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// NewShortID returns the first 8 characters of NewID. Callers that need
// uniqueness must check for collisions themselves.
func NewShortID() string {
	id := NewID()
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
