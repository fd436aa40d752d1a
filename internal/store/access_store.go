package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
)

// Sentinel errors for access store operations
var (
	ErrAccessNotFound = errors.New("project access not found")
)

// AccessStore defines the interface for access grant storage. There is one
// grant per (project, user) pair, keyed by that pair; the permission set is a
// flat string set.
type AccessStore interface {
	// Grant idempotently merges grant.Permissions into the existing grant for
	// (grant.ProjectID, grant.UserID). If no grant exists one is inserted,
	// recording grant.CreatorID and the creation time; on merge the creator
	// and creation time of the existing grant are left untouched.
	Grant(ctx context.Context, grant *models.ProjectAccess) error

	// Revoke removes each listed permission from the grant. The grant row
	// survives even when the resulting set becomes empty.
	// Returns ErrAccessNotFound if no grant exists for the pair.
	Revoke(ctx context.Context, projectID, userID uuid.UUID, permissions []string) error

	// Delete removes the grant entirely.
	// Returns ErrAccessNotFound if no grant exists for the pair.
	Delete(ctx context.Context, projectID, userID uuid.UUID) error

	// Get retrieves the grant for the pair.
	// Returns ErrAccessNotFound if no grant exists.
	Get(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectAccess, error)

	// HasPermission reports whether a grant exists for the pair whose set
	// intersects the given permissions.
	HasPermission(ctx context.Context, projectID, userID uuid.UUID, permissions ...string) (bool, error)

	// HasAny reports whether a grant exists for the pair with a non-empty
	// permission set. A grant emptied by Revoke behaves like a missing grant.
	HasAny(ctx context.Context, projectID, userID uuid.UUID) (bool, error)

	// ListByProject returns the grants of a project, paginated in storage order.
	ListByProject(ctx context.Context, projectID uuid.UUID, page Page) ([]*models.ProjectAccess, error)

	// ListByUser returns the grants held by a user, paginated in storage order.
	ListByUser(ctx context.Context, userID uuid.UUID, page Page) ([]*models.ProjectAccess, error)
}
