package models

import (
	"time"

	"github.com/google/uuid"
)

// UserPreferences is the per-installation settings row. One exists per
// store; the repository creates it on first read.
type UserPreferences struct {
	ID          string     `json:"id"`
	SyncEnabled bool       `json:"syncEnabled"`
	LastSync    *time.Time `json:"lastSync,omitempty"`
}

// NewUserPreferences returns the defaults for a fresh installation. Sync
// stays off until the user opts in.
func NewUserPreferences() UserPreferences {
	return UserPreferences{
		ID: uuid.NewString(),
	}
}
