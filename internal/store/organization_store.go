package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
)

// Sentinel errors for organization store operations
var (
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
)

// OrganizationStore defines the interface for organization storage operations.
// Organizations are the tenant roots; their names are unique globally and the
// uniqueness is enforced by the store, not by callers.
type OrganizationStore interface {
	// Create creates a new organization.
	// Returns ErrOrganizationAlreadyExists if the name is already taken.
	Create(ctx context.Context, org *models.Organization) error

	// Get retrieves an organization by ID.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)

	// GetByName retrieves an organization by its globally unique name.
	// Returns ErrOrganizationNotFound if no organization has that name.
	GetByName(ctx context.Context, name string) (*models.Organization, error)

	// NameExists reports whether an organization with the given name exists.
	NameExists(ctx context.Context, name string) (bool, error)

	// SetCreator records the creator of an organization. Used by the two-phase
	// sign-up to backfill the creator once the first admin user exists.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	SetCreator(ctx context.Context, orgID, creatorID uuid.UUID) error

	// Delete deletes an organization by ID. This is the compensating action
	// for a failed sign-up; it is not exposed through the API.
	// Returns ErrOrganizationNotFound if the organization doesn't exist.
	Delete(ctx context.Context, orgID uuid.UUID) error
}
