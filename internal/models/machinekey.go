package models

import (
	"time"

	"github.com/google/uuid"
)

// MachineKey is a generated machine credential owned by a project. The secret
// key is never serialized with the metadata; it is only returned by the
// dedicated reveal operation, which requires an elevated permission.
type MachineKey struct {
	ID             uuid.UUID `json:"id"` // UUIDv7
	Name           string    `json:"name"` // unique within project
	Key            string    `json:"-"` // generated secret
	ProjectID      uuid.UUID `json:"project_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	CreatorID      uuid.UUID `json:"creator_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
