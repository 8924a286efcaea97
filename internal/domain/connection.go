// Package domain contains entity without logic, just meta-data
package domain

import "github.com/google/uuid"

// ConnectionID identifies a live connection for its whole lifetime.
type ConnectionID string

// NewConnectionID allocates a fresh identifier.
func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}
