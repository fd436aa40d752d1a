package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
)

// Sentinel errors for project store operations
var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectAlreadyExists = errors.New("project already exists")
)

// ProjectStore defines the interface for project storage operations. Project
// names are unique within an organization, enforced by the store.
type ProjectStore interface {
	// Create creates a new project.
	// Returns ErrProjectAlreadyExists if the name is taken within the organization.
	Create(ctx context.Context, project *models.Project) error

	// Get retrieves a project by ID.
	Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error)

	// FetchByIDs returns the projects whose IDs are in the given set. IDs
	// that don't resolve are silently absent from the result.
	FetchByIDs(ctx context.Context, projectIDs []uuid.UUID) ([]*models.Project, error)

	// Update renames a project. An empty name only bumps the updated_at
	// timestamp. Returns ErrProjectNotFound if the project doesn't exist and
	// ErrProjectAlreadyExists if the new name is taken within the organization.
	Update(ctx context.Context, projectID uuid.UUID, name string) error

	// Delete deletes a project by ID.
	Delete(ctx context.Context, projectID uuid.UUID) error

	// NameExists reports whether a project with the given name exists within
	// the organization, excluding excludeID when it is not uuid.Nil (used by
	// rename pre-checks so a project doesn't collide with itself).
	NameExists(ctx context.Context, name string, orgID, excludeID uuid.UUID) (bool, error)
}
