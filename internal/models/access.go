package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// ProjectAccess is the access grant for one (project, user) pair: a flat set
// of permission strings. There is exactly one document per pair, upserted on
// first grant. A grant whose permission set is empty is equivalent to no
// grant at all.
type ProjectAccess struct {
	ProjectID   uuid.UUID `json:"project_id"`
	UserID      uuid.UUID `json:"user_id"`
	Permissions []string  `json:"permissions"`
	CreatorID   uuid.UUID `json:"creator_id"` // who granted first, recorded on insert only
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Has reports whether the grant contains the given permission string.
// It does not apply wildcard semantics; that is the access engine's job.
func (a *ProjectAccess) Has(permission string) bool {
	return slices.Contains(a.Permissions, permission)
}
