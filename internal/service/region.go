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

// RegionService manages infrastructure regions within a project. Writes
// require the region admin permission and fail Forbidden without it; reads
// only require some access on the project and mask everything else as
// NotFound.
type RegionService struct {
	regionStore store.RegionStore
	engine      *access.Engine
}

// NewRegionService creates a new region service.
func NewRegionService(regionStore store.RegionStore, engine *access.Engine) *RegionService {
	return &RegionService{
		regionStore: regionStore,
		engine:      engine,
	}
}

// Create creates a region in a project.
func (s *RegionService) Create(ctx context.Context, name, description string, projectID uuid.UUID, caller auth.Identity) (*models.Region, error) {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionRegionAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, Forbiddenf("not allowed to manage regions")
	}

	if name == "" {
		return nil, InvalidInputf("name is required")
	}

	taken, err := s.regionStore.NameExists(ctx, name, projectID, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check region name: %w", err)
	}
	if taken {
		return nil, Conflictf("region %q already exists", name)
	}

	now := time.Now()
	region := &models.Region{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           name,
		Description:    description,
		ProjectID:      projectID,
		OrganizationID: caller.OrganizationID,
		CreatorID:      caller.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.regionStore.Create(ctx, region); err != nil {
		if errors.Is(err, store.ErrRegionAlreadyExists) {
			return nil, Conflictf("region %q already exists", name)
		}
		return nil, fmt.Errorf("failed to create region: %w", err)
	}

	log.Info().
		Str("region_id", region.ID.String()).
		Str("project_id", projectID.String()).
		Msg("Created region")

	return region, nil
}

// Fetch returns the regions of a project.
func (s *RegionService) Fetch(ctx context.Context, projectID uuid.UUID, caller auth.Identity, page store.Page) ([]*models.Region, error) {
	ok, err := s.engine.HasAnyAccess(ctx, projectID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, NotFoundf("project not found")
	}

	regions, err := s.regionStore.Fetch(ctx, projectID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch regions: %w", err)
	}

	return regions, nil
}

// Get retrieves a region by ID within a project.
func (s *RegionService) Get(ctx context.Context, regionID, projectID uuid.UUID, caller auth.Identity) (*models.Region, error) {
	ok, err := s.engine.HasAnyAccess(ctx, projectID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, NotFoundf("project not found")
	}

	region, err := s.regionStore.Get(ctx, regionID, projectID)
	if err != nil {
		if errors.Is(err, store.ErrRegionNotFound) {
			return nil, NotFoundf("region not found")
		}
		return nil, fmt.Errorf("failed to get region: %w", err)
	}

	return region, nil
}

// Update applies a partial update to a region. The description is replaced
// whenever present; the name only when non-empty and still unique.
func (s *RegionService) Update(ctx context.Context, regionID, projectID uuid.UUID, name, description *string, caller auth.Identity) error {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionRegionAdmin)
	if err != nil {
		return fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return Forbiddenf("not allowed to manage regions")
	}

	if name != nil && *name != "" {
		taken, err := s.regionStore.NameExists(ctx, *name, projectID, regionID)
		if err != nil {
			return fmt.Errorf("failed to check region name: %w", err)
		}
		if taken {
			return Conflictf("region %q already exists", *name)
		}
	} else {
		name = nil
	}

	if err := s.regionStore.Update(ctx, regionID, projectID, name, description); err != nil {
		if errors.Is(err, store.ErrRegionNotFound) {
			return NotFoundf("region not found")
		}
		if errors.Is(err, store.ErrRegionAlreadyExists) {
			return Conflictf("region name already exists")
		}
		return fmt.Errorf("failed to update region: %w", err)
	}

	return nil
}

// Delete deletes a region. Data centers referencing it are left in place.
func (s *RegionService) Delete(ctx context.Context, regionID, projectID uuid.UUID, caller auth.Identity) error {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionRegionAdmin)
	if err != nil {
		return fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return Forbiddenf("not allowed to manage regions")
	}

	if err := s.regionStore.Delete(ctx, regionID, projectID); err != nil {
		if errors.Is(err, store.ErrRegionNotFound) {
			return NotFoundf("region not found")
		}
		return fmt.Errorf("failed to delete region: %w", err)
	}

	return nil
}
