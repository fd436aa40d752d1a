// Package access implements the permission-set authorization engine. Every
// decision is a set membership test on the grant of one (project, user) pair;
// there are no roles and no permission hierarchy beyond the wildcard.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
	"github.com/qkhacks/controller/internal/store"
)

// Well-known permissions. Permissions are free-form strings; these are the
// ones the services check for.
const (
	// PermissionAll grants every operation on a project, including managing
	// other users' access.
	PermissionAll = "all"

	PermissionRegionAdmin     = "infra.region.admin"
	PermissionDataCenterAdmin = "infra.datacenter.admin"
	PermissionMachineKeyAdmin = "infra.machine-key.admin"
)

// ErrNoGrant is returned by Revoke and RevokeAll when no grant exists for the
// pair.
var ErrNoGrant = errors.New("no access grant for user on project")

// Engine makes authorization decisions backed by an AccessStore.
type Engine struct {
	accessStore store.AccessStore
}

// NewEngine creates an access engine on top of the given store.
func NewEngine(accessStore store.AccessStore) *Engine {
	return &Engine{
		accessStore: accessStore,
	}
}

// Grant merges permissions into the grant for (projectID, userID), creating
// it if absent. The granter is recorded as creator only on first insert.
// Granting is idempotent.
func (e *Engine) Grant(ctx context.Context, projectID, userID uuid.UUID, permissions []string, granterID uuid.UUID) error {
	if len(permissions) == 0 {
		return errors.New("permissions must not be empty")
	}

	now := time.Now()
	grant := &models.ProjectAccess{
		ProjectID:   projectID,
		UserID:      userID,
		Permissions: permissions,
		CreatorID:   granterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.accessStore.Grant(ctx, grant); err != nil {
		return fmt.Errorf("failed to grant access: %w", err)
	}

	return nil
}

// Revoke removes the listed permissions from the grant. The grant row
// survives even when its set becomes empty, preserving who granted first.
func (e *Engine) Revoke(ctx context.Context, projectID, userID uuid.UUID, permissions []string) error {
	err := e.accessStore.Revoke(ctx, projectID, userID, permissions)
	if err != nil {
		if errors.Is(err, store.ErrAccessNotFound) {
			return ErrNoGrant
		}
		return fmt.Errorf("failed to revoke access: %w", err)
	}

	return nil
}

// RevokeAll deletes the grant for the pair entirely.
func (e *Engine) RevokeAll(ctx context.Context, projectID, userID uuid.UUID) error {
	err := e.accessStore.Delete(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, store.ErrAccessNotFound) {
			return ErrNoGrant
		}
		return fmt.Errorf("failed to revoke all access: %w", err)
	}

	return nil
}

// HasAccess reports whether the user holds the permission on the project,
// either directly or through the wildcard.
func (e *Engine) HasAccess(ctx context.Context, projectID, userID uuid.UUID, permission string) (bool, error) {
	return e.accessStore.HasPermission(ctx, projectID, userID, permission, PermissionAll)
}

// HasAnyAccess reports whether the user holds any permission at all on the
// project. A grant emptied by Revoke counts as no access.
func (e *Engine) HasAnyAccess(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	return e.accessStore.HasAny(ctx, projectID, userID)
}

// ListUsers returns the grants of a project, one per user.
func (e *Engine) ListUsers(ctx context.Context, projectID uuid.UUID, page store.Page) ([]*models.ProjectAccess, error) {
	return e.accessStore.ListByProject(ctx, projectID, page)
}

// ListProjects returns the grants held by a user, one per project.
func (e *Engine) ListProjects(ctx context.Context, userID uuid.UUID, page store.Page) ([]*models.ProjectAccess, error) {
	return e.accessStore.ListByUser(ctx, userID, page)
}
