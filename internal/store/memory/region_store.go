package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
	"github.com/qkhacks/controller/internal/store"
)

// RegionStore implements store.RegionStore using in-memory storage. This
// implementation is for tests and development - data is lost on restart.
type RegionStore struct {
	mu sync.RWMutex

	regions map[uuid.UUID]*models.Region // region_id -> Region
	order   []uuid.UUID                  // insertion order for pagination
}

// NewRegionStore creates a new in-memory region store.
func NewRegionStore() *RegionStore {
	return &RegionStore{
		regions: make(map[uuid.UUID]*models.Region),
	}
}

// Create creates a new region in memory.
func (s *RegionStore) Create(ctx context.Context, region *models.Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.regions[region.ID]; exists {
		return store.ErrRegionAlreadyExists
	}
	if s.nameTaken(region.Name, region.ProjectID, uuid.Nil) {
		return store.ErrRegionAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *region
	s.regions[region.ID] = &clone
	s.order = append(s.order, region.ID)

	return nil
}

// Get retrieves a region by ID within a project.
func (s *RegionStore) Get(ctx context.Context, regionID, projectID uuid.UUID) (*models.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	region, exists := s.regions[regionID]
	if !exists || region.ProjectID != projectID {
		return nil, store.ErrRegionNotFound
	}

	clone := *region
	return &clone, nil
}

// Fetch returns the regions of a project, paginated in insertion order.
func (s *RegionStore) Fetch(ctx context.Context, projectID uuid.UUID, page store.Page) ([]*models.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Region
	for _, id := range s.order {
		region, exists := s.regions[id]
		if !exists || region.ProjectID != projectID {
			continue
		}
		matched = append(matched, region)
	}

	return paginate(matched, page), nil
}

// Update applies a partial update: nil fields are left unchanged.
func (s *RegionStore) Update(ctx context.Context, regionID, projectID uuid.UUID, name, description *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	region, exists := s.regions[regionID]
	if !exists || region.ProjectID != projectID {
		return store.ErrRegionNotFound
	}

	if name != nil {
		if s.nameTaken(*name, projectID, regionID) {
			return store.ErrRegionAlreadyExists
		}
		region.Name = *name
	}
	if description != nil {
		region.Description = *description
	}
	region.UpdatedAt = time.Now()

	return nil
}

// Delete deletes a region by ID within a project.
func (s *RegionStore) Delete(ctx context.Context, regionID, projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	region, exists := s.regions[regionID]
	if !exists || region.ProjectID != projectID {
		return store.ErrRegionNotFound
	}

	delete(s.regions, regionID)
	s.order = slices.DeleteFunc(s.order, func(id uuid.UUID) bool { return id == regionID })

	return nil
}

// Exists reports whether the region exists within the project.
func (s *RegionStore) Exists(ctx context.Context, regionID, projectID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	region, exists := s.regions[regionID]
	return exists && region.ProjectID == projectID, nil
}

// NameExists reports whether the name is taken within the project, excluding
// excludeID when it is not uuid.Nil.
func (s *RegionStore) NameExists(ctx context.Context, name string, projectID, excludeID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nameTaken(name, projectID, excludeID), nil
}

func (s *RegionStore) nameTaken(name string, projectID, excludeID uuid.UUID) bool {
	for _, region := range s.regions {
		if region.ID == excludeID {
			continue
		}
		if region.ProjectID == projectID && region.Name == name {
			return true
		}
	}
	return false
}
