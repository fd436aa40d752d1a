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

// DataCenterService manages data centers within a project. A data center
// lives in a region of the same project; the region reference is fixed at
// creation and deleting the region later leaves the reference dangling.
type DataCenterService struct {
	dcStore     store.DataCenterStore
	regionStore store.RegionStore
	engine      *access.Engine
}

// NewDataCenterService creates a new data center service.
func NewDataCenterService(dcStore store.DataCenterStore, regionStore store.RegionStore, engine *access.Engine) *DataCenterService {
	return &DataCenterService{
		dcStore:     dcStore,
		regionStore: regionStore,
		engine:      engine,
	}
}

// Create creates a data center in a region of the project. The region must
// exist within the same project before anything is written.
func (s *DataCenterService) Create(ctx context.Context, name, description string, regionID, projectID uuid.UUID, caller auth.Identity) (*models.DataCenter, error) {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionDataCenterAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, Forbiddenf("not allowed to manage data centers")
	}

	if name == "" {
		return nil, InvalidInputf("name is required")
	}

	taken, err := s.dcStore.NameExists(ctx, name, projectID, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check data center name: %w", err)
	}
	if taken {
		return nil, Conflictf("data center %q already exists", name)
	}

	regionExists, err := s.regionStore.Exists(ctx, regionID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check region: %w", err)
	}
	if !regionExists {
		return nil, NotFoundf("region not found")
	}

	now := time.Now()
	dc := &models.DataCenter{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           name,
		Description:    description,
		RegionID:       regionID,
		ProjectID:      projectID,
		OrganizationID: caller.OrganizationID,
		CreatorID:      caller.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.dcStore.Create(ctx, dc); err != nil {
		if errors.Is(err, store.ErrDataCenterAlreadyExists) {
			return nil, Conflictf("data center %q already exists", name)
		}
		return nil, fmt.Errorf("failed to create data center: %w", err)
	}

	log.Info().
		Str("data_center_id", dc.ID.String()).
		Str("region_id", regionID.String()).
		Str("project_id", projectID.String()).
		Msg("Created data center")

	return dc, nil
}

// Fetch returns the data centers of a project. When regionID is not uuid.Nil
// the result is limited to that region.
func (s *DataCenterService) Fetch(ctx context.Context, projectID, regionID uuid.UUID, caller auth.Identity, page store.Page) ([]*models.DataCenter, error) {
	ok, err := s.engine.HasAnyAccess(ctx, projectID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, NotFoundf("project not found")
	}

	dcs, err := s.dcStore.Fetch(ctx, projectID, regionID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data centers: %w", err)
	}

	return dcs, nil
}

// Get retrieves a data center by ID within a project.
func (s *DataCenterService) Get(ctx context.Context, dataCenterID, projectID uuid.UUID, caller auth.Identity) (*models.DataCenter, error) {
	ok, err := s.engine.HasAnyAccess(ctx, projectID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, NotFoundf("project not found")
	}

	dc, err := s.dcStore.Get(ctx, dataCenterID, projectID)
	if err != nil {
		if errors.Is(err, store.ErrDataCenterNotFound) {
			return nil, NotFoundf("data center not found")
		}
		return nil, fmt.Errorf("failed to get data center: %w", err)
	}

	return dc, nil
}

// Update applies a partial update to a data center. The region reference is
// never touched.
func (s *DataCenterService) Update(ctx context.Context, dataCenterID, projectID uuid.UUID, name, description *string, caller auth.Identity) error {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionDataCenterAdmin)
	if err != nil {
		return fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return Forbiddenf("not allowed to manage data centers")
	}

	if name != nil && *name != "" {
		taken, err := s.dcStore.NameExists(ctx, *name, projectID, dataCenterID)
		if err != nil {
			return fmt.Errorf("failed to check data center name: %w", err)
		}
		if taken {
			return Conflictf("data center %q already exists", *name)
		}
	} else {
		name = nil
	}

	if err := s.dcStore.Update(ctx, dataCenterID, projectID, name, description); err != nil {
		if errors.Is(err, store.ErrDataCenterNotFound) {
			return NotFoundf("data center not found")
		}
		if errors.Is(err, store.ErrDataCenterAlreadyExists) {
			return Conflictf("data center name already exists")
		}
		return fmt.Errorf("failed to update data center: %w", err)
	}

	return nil
}

// Delete deletes a data center.
func (s *DataCenterService) Delete(ctx context.Context, dataCenterID, projectID uuid.UUID, caller auth.Identity) error {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionDataCenterAdmin)
	if err != nil {
		return fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return Forbiddenf("not allowed to manage data centers")
	}

	if err := s.dcStore.Delete(ctx, dataCenterID, projectID); err != nil {
		if errors.Is(err, store.ErrDataCenterNotFound) {
			return NotFoundf("data center not found")
		}
		return fmt.Errorf("failed to delete data center: %w", err)
	}

	return nil
}
