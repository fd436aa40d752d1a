package models

import (
	"time"

	"github.com/google/uuid"
)

// Project groups resources and access grants within an organization.
type Project struct {
	ID             uuid.UUID `json:"id"` // UUIDv7
	Name           string    `json:"name"` // unique within organization
	CreatorID      uuid.UUID `json:"creator_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
