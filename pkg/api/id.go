package api

import "github.com/google/uuid"

// NewRequestID generates the opaque correlation ID for a pending request.
// IDs are UUIDv4 strings; the host treats them as opaque tokens.
func NewRequestID() string {
	return uuid.NewString()
}
