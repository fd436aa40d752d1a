package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant in the system. Every other entity is
// scoped to exactly one organization, either directly or via its project.
type Organization struct {
	ID        uuid.UUID  `json:"id"`         // UUIDv7
	Name      string     `json:"name"`       // unique globally
	CreatorID *uuid.UUID `json:"creator_id"` // set once the first admin user exists
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
