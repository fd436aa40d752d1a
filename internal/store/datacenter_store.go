package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
)

// Sentinel errors for data center store operations
var (
	ErrDataCenterNotFound      = errors.New("data center not found")
	ErrDataCenterAlreadyExists = errors.New("data center already exists")
)

// DataCenterStore defines the interface for data center storage operations.
// Names are unique within a project, enforced by the store. The region
// reference is immutable after creation; there is deliberately no way to
// update it, and deleting a region does not cascade (stale references are
// tolerated by readers).
type DataCenterStore interface {
	// Create creates a new data center.
	// Returns ErrDataCenterAlreadyExists if the name is taken within the project.
	Create(ctx context.Context, dc *models.DataCenter) error

	// Get retrieves a data center by ID within a project.
	Get(ctx context.Context, dataCenterID, projectID uuid.UUID) (*models.DataCenter, error)

	// Fetch returns the data centers of a project, paginated in storage
	// order. When regionID is not uuid.Nil the result is filtered to that region.
	Fetch(ctx context.Context, projectID, regionID uuid.UUID, page Page) ([]*models.DataCenter, error)

	// Update applies a partial update: nil fields are left unchanged.
	// Returns ErrDataCenterNotFound if the data center doesn't exist in the project.
	Update(ctx context.Context, dataCenterID, projectID uuid.UUID, name, description *string) error

	// Delete deletes a data center by ID within a project.
	Delete(ctx context.Context, dataCenterID, projectID uuid.UUID) error

	// NameExists reports whether the name is taken within the project,
	// excluding excludeID when it is not uuid.Nil.
	NameExists(ctx context.Context, name string, projectID, excludeID uuid.UUID) (bool, error)
}
