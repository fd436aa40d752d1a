package models

import (
	"time"

	"github.com/google/uuid"
)

// DataCenter is an infrastructure data center within a region. The region
// must belong to the same project; RegionID is immutable after creation.
type DataCenter struct {
	ID             uuid.UUID `json:"id"` // UUIDv7
	Name           string    `json:"name"` // unique within project
	Description    string    `json:"description"`
	RegionID       uuid.UUID `json:"region_id"`
	ProjectID      uuid.UUID `json:"project_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	CreatorID      uuid.UUID `json:"creator_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
