package crypto

import (
	"github.com/google/uuid"
)

// NewRequestID generates a time-ordered UUID v7 for request correlation.
func NewRequestID() string {
	return uuid.Must(uuid.NewV7()).String()
}
