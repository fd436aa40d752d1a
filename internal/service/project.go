package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/access"
	"github.com/qkhacks/controller/internal/auth"
	"github.com/qkhacks/controller/internal/models"
	"github.com/qkhacks/controller/internal/store"
	"github.com/rs/zerolog/log"
)

// ProjectGrant pairs a project with the permissions the caller holds on it.
type ProjectGrant struct {
	Permissions []string        `json:"permissions"`
	Project     *models.Project `json:"project"`
}

// UserGrant pairs a project member with the permissions they hold.
type UserGrant struct {
	Permissions []string     `json:"permissions"`
	User        *models.User `json:"user"`
}

// ProjectService manages projects and the access grants on them. A caller
// sees only the projects they hold a grant on; holding the wildcard
// permission is what makes someone a project administrator.
type ProjectService struct {
	projectStore store.ProjectStore
	userStore    store.UserStore
	engine       *access.Engine
}

// NewProjectService creates a new project service.
func NewProjectService(projectStore store.ProjectStore, userStore store.UserStore, engine *access.Engine) *ProjectService {
	return &ProjectService{
		projectStore: projectStore,
		userStore:    userStore,
		engine:       engine,
	}
}

// Create creates a project in the caller's organization and grants the
// creator the wildcard permission on it.
func (s *ProjectService) Create(ctx context.Context, name string, caller auth.Identity) (*models.Project, error) {
	if !caller.Admin {
		return nil, Forbiddenf("only organization admins can create projects")
	}
	if name == "" {
		return nil, InvalidInputf("name is required")
	}

	now := time.Now()
	project := &models.Project{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           name,
		CreatorID:      caller.ID,
		OrganizationID: caller.OrganizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.projectStore.Create(ctx, project); err != nil {
		if errors.Is(err, store.ErrProjectAlreadyExists) {
			return nil, Conflictf("project %q already exists", name)
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if err := s.engine.Grant(ctx, project.ID, caller.ID, []string{access.PermissionAll}, caller.ID); err != nil {
		return nil, fmt.Errorf("failed to grant creator access: %w", err)
	}

	log.Info().
		Str("project_id", project.ID.String()).
		Str("creator_id", caller.ID.String()).
		Msg("Created project")

	return project, nil
}

// Fetch returns the projects the caller holds a grant on, each paired with
// the caller's permissions. Grants pointing at projects that no longer exist
// are skipped.
func (s *ProjectService) Fetch(ctx context.Context, caller auth.Identity, page store.Page) ([]*ProjectGrant, error) {
	grants, err := s.engine.ListProjects(ctx, caller.ID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list project grants: %w", err)
	}

	projectIDs := make([]uuid.UUID, 0, len(grants))
	for _, grant := range grants {
		projectIDs = append(projectIDs, grant.ProjectID)
	}

	projects, err := s.projectStore.FetchByIDs(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}

	projectsByID := make(map[uuid.UUID]*models.Project, len(projects))
	for _, project := range projects {
		projectsByID[project.ID] = project
	}

	result := make([]*ProjectGrant, 0, len(grants))
	for _, grant := range grants {
		project, ok := projectsByID[grant.ProjectID]
		if !ok {
			continue // stale grant, project deleted
		}
		result = append(result, &ProjectGrant{
			Permissions: grant.Permissions,
			Project:     project,
		})
	}

	return result, nil
}

// Get retrieves a project the caller has access to. Callers without a grant
// get the same not-found answer as for a project that doesn't exist.
func (s *ProjectService) Get(ctx context.Context, projectID uuid.UUID, caller auth.Identity) (*models.Project, error) {
	ok, err := s.engine.HasAnyAccess(ctx, projectID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, NotFoundf("project not found")
	}

	project, err := s.projectStore.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			return nil, NotFoundf("project not found")
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// Update renames a project. Requires the wildcard permission. An empty name
// leaves the current name in place and only bumps the update timestamp.
func (s *ProjectService) Update(ctx context.Context, projectID uuid.UUID, name string, caller auth.Identity) error {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionAll)
	if err != nil {
		return fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return Forbiddenf("not allowed to update project")
	}

	if name != "" {
		taken, err := s.projectStore.NameExists(ctx, name, caller.OrganizationID, projectID)
		if err != nil {
			return fmt.Errorf("failed to check project name: %w", err)
		}
		if taken {
			return Conflictf("project %q already exists", name)
		}
	}

	if err := s.projectStore.Update(ctx, projectID, name); err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			return NotFoundf("project not found")
		}
		if errors.Is(err, store.ErrProjectAlreadyExists) {
			return Conflictf("project %q already exists", name)
		}
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

// Delete deletes a project. Requires the wildcard permission.
func (s *ProjectService) Delete(ctx context.Context, projectID uuid.UUID, caller auth.Identity) error {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionAll)
	if err != nil {
		return fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return Forbiddenf("not allowed to delete project")
	}

	if err := s.projectStore.Delete(ctx, projectID); err != nil {
		if errors.Is(err, store.ErrProjectNotFound) {
			return NotFoundf("project not found")
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// AddAccess grants permissions on a project to another user. The caller must
// hold the wildcard permission and the target user must belong to the
// caller's organization.
func (s *ProjectService) AddAccess(ctx context.Context, projectID, userID uuid.UUID, permissions []string, caller auth.Identity) (*UserGrant, error) {
	if len(permissions) == 0 {
		return nil, InvalidInputf("permissions are required")
	}

	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionAll)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, Forbiddenf("not allowed to manage project access")
	}

	user, err := s.userStore.GetByOrganization(ctx, userID, caller.OrganizationID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, NotFoundf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.engine.Grant(ctx, projectID, user.ID, permissions, caller.ID); err != nil {
		return nil, fmt.Errorf("failed to grant access: %w", err)
	}

	log.Info().
		Str("project_id", projectID.String()).
		Str("user_id", user.ID.String()).
		Strs("permissions", permissions).
		Str("granter_id", caller.ID.String()).
		Msg("Granted project access")

	return &UserGrant{Permissions: permissions, User: user}, nil
}

// DeleteAccess revokes the listed permissions from a user's grant. The
// caller must hold the wildcard permission.
func (s *ProjectService) DeleteAccess(ctx context.Context, projectID, userID uuid.UUID, permissions []string, caller auth.Identity) error {
	if len(permissions) == 0 {
		return InvalidInputf("permissions are required")
	}

	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionAll)
	if err != nil {
		return fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return Forbiddenf("not allowed to manage project access")
	}

	if err := s.engine.Revoke(ctx, projectID, userID, permissions); err != nil {
		if errors.Is(err, access.ErrNoGrant) {
			return NotFoundf("access grant not found")
		}
		return fmt.Errorf("failed to revoke access: %w", err)
	}

	return nil
}

// DeleteAllAccess removes a user's grant on a project entirely. The caller
// must hold the wildcard permission.
func (s *ProjectService) DeleteAllAccess(ctx context.Context, projectID, userID uuid.UUID, caller auth.Identity) error {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionAll)
	if err != nil {
		return fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return Forbiddenf("not allowed to manage project access")
	}

	if err := s.engine.RevokeAll(ctx, projectID, userID); err != nil {
		if errors.Is(err, access.ErrNoGrant) {
			return NotFoundf("access grant not found")
		}
		return fmt.Errorf("failed to revoke access: %w", err)
	}

	return nil
}

// FetchUsers returns the members of a project, each paired with their
// permissions. Requires any access on the project; grants pointing at users
// that no longer exist are skipped.
func (s *ProjectService) FetchUsers(ctx context.Context, projectID uuid.UUID, caller auth.Identity, page store.Page) ([]*UserGrant, error) {
	ok, err := s.engine.HasAnyAccess(ctx, projectID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, NotFoundf("project not found")
	}

	grants, err := s.engine.ListUsers(ctx, projectID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list user grants: %w", err)
	}

	userIDs := make([]uuid.UUID, 0, len(grants))
	for _, grant := range grants {
		userIDs = append(userIDs, grant.UserID)
	}

	users, err := s.userStore.FetchByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	usersByID := make(map[uuid.UUID]*models.User, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
	}

	result := make([]*UserGrant, 0, len(grants))
	for _, grant := range grants {
		user, ok := usersByID[grant.UserID]
		if !ok {
			continue // stale grant, user deleted
		}
		result = append(result, &UserGrant{
			Permissions: grant.Permissions,
			User:        user,
		})
	}

	return result, nil
}
