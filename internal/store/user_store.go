package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
)

// Sentinel errors for user store operations
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserStore defines the interface for user storage operations. Usernames are
// unique within an organization, enforced by the store. Every write that
// takes an organization ID filters by both user ID and organization ID; a
// user that exists under a different tenant is reported as not found. This is
// the tenant-isolation invariant the rest of the system depends on.
type UserStore interface {
	// Create creates a new user.
	// Returns ErrUserAlreadyExists if the username is taken within the organization.
	Create(ctx context.Context, user *models.User) error

	// Get retrieves a user by ID regardless of organization.
	Get(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetByOrganization retrieves a user by ID within an organization.
	GetByOrganization(ctx context.Context, userID, orgID uuid.UUID) (*models.User, error)

	// GetByUsername retrieves a user by username within an organization.
	GetByUsername(ctx context.Context, username string, orgID uuid.UUID) (*models.User, error)

	// Fetch returns users of an organization, paginated in storage order.
	Fetch(ctx context.Context, orgID uuid.UUID, page Page) ([]*models.User, error)

	// FetchByIDs returns the users whose IDs are in the given set. IDs that
	// don't resolve are silently absent from the result.
	FetchByIDs(ctx context.Context, userIDs []uuid.UUID) ([]*models.User, error)

	// UpdatePassword replaces the password hash of a user (self-service path,
	// not tenant-scoped: the caller is the user).
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	// UpdatePasswordByOrganization replaces the password hash of a user within
	// an organization (admin-initiated reset).
	UpdatePasswordByOrganization(ctx context.Context, userID, orgID uuid.UUID, passwordHash string) error

	// SetAdmin toggles the admin flag of a user within an organization.
	SetAdmin(ctx context.Context, userID, orgID uuid.UUID, admin bool) error

	// Delete deletes a user by ID within an organization.
	Delete(ctx context.Context, userID, orgID uuid.UUID) error

	// UsernameExists reports whether the username is taken within the organization.
	UsernameExists(ctx context.Context, username string, orgID uuid.UUID) (bool, error)
}
