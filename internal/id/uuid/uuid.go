// Package uuid generates run identifiers.
package uuid

import (
	"github.com/google/uuid"
)

// NewRunID returns a time-ordered UUIDv7 string so run ids sort by start time
// in logs. It falls back to a random v4 id if the v7 clock read fails.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
