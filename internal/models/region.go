package models

import (
	"time"

	"github.com/google/uuid"
)

// Region is an infrastructure region owned by a project.
type Region struct {
	ID             uuid.UUID `json:"id"` // UUIDv7
	Name           string    `json:"name"` // unique within project
	Description    string    `json:"description"`
	ProjectID      uuid.UUID `json:"project_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	CreatorID      uuid.UUID `json:"creator_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
