package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
)

// Sentinel errors for region store operations
var (
	ErrRegionNotFound      = errors.New("region not found")
	ErrRegionAlreadyExists = errors.New("region already exists")
)

// RegionStore defines the interface for region storage operations. Region
// names are unique within a project, enforced by the store. All reads and
// writes are scoped by project ID.
type RegionStore interface {
	// Create creates a new region.
	// Returns ErrRegionAlreadyExists if the name is taken within the project.
	Create(ctx context.Context, region *models.Region) error

	// Get retrieves a region by ID within a project.
	Get(ctx context.Context, regionID, projectID uuid.UUID) (*models.Region, error)

	// Fetch returns the regions of a project, paginated in storage order.
	Fetch(ctx context.Context, projectID uuid.UUID, page Page) ([]*models.Region, error)

	// Update applies a partial update: nil fields are left unchanged.
	// Returns ErrRegionNotFound if the region doesn't exist in the project.
	Update(ctx context.Context, regionID, projectID uuid.UUID, name, description *string) error

	// Delete deletes a region by ID within a project.
	Delete(ctx context.Context, regionID, projectID uuid.UUID) error

	// Exists reports whether the region exists within the project.
	Exists(ctx context.Context, regionID, projectID uuid.UUID) (bool, error)

	// NameExists reports whether the name is taken within the project,
	// excluding excludeID when it is not uuid.Nil.
	NameExists(ctx context.Context, name string, projectID, excludeID uuid.UUID) (bool, error)
}
