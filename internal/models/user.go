package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a principal within an organization. The admin flag grants
// organization-scoped management rights (creating projects, managing users)
// independent of the per-project permission model.
type User struct {
	ID             uuid.UUID  `json:"id"` // UUIDv7
	Username       string     `json:"username"` // unique within organization
	PasswordHash   string     `json:"-"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	CreatorID      *uuid.UUID `json:"creator_id"` // nil for the sign-up user
	Admin          bool       `json:"admin"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
