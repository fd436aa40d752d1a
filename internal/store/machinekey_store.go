package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
)

// Sentinel errors for machine key store operations
var (
	ErrMachineKeyNotFound      = errors.New("machine key not found")
	ErrMachineKeyAlreadyExists = errors.New("machine key already exists")
)

// MachineKeyStore defines the interface for machine key storage operations.
// Names are unique within a project, enforced by the store. The store returns
// the secret key as part of the model; keeping it out of metadata responses
// is the service layer's responsibility.
type MachineKeyStore interface {
	// Create creates a new machine key.
	// Returns ErrMachineKeyAlreadyExists if the name is taken within the project.
	Create(ctx context.Context, key *models.MachineKey) error

	// Get retrieves a machine key by ID within a project.
	Get(ctx context.Context, machineKeyID, projectID uuid.UUID) (*models.MachineKey, error)

	// Fetch returns the machine keys of a project, paginated in storage order.
	Fetch(ctx context.Context, projectID uuid.UUID, page Page) ([]*models.MachineKey, error)

	// Update applies a partial update: a nil name is left unchanged.
	// Returns ErrMachineKeyNotFound if the key doesn't exist in the project.
	Update(ctx context.Context, machineKeyID, projectID uuid.UUID, name *string) error

	// Delete deletes a machine key by ID within a project.
	Delete(ctx context.Context, machineKeyID, projectID uuid.UUID) error

	// NameExists reports whether the name is taken within the project,
	// excluding excludeID when it is not uuid.Nil.
	NameExists(ctx context.Context, name string, projectID, excludeID uuid.UUID) (bool, error)
}
