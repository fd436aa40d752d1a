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

// DataCenterStore implements store.DataCenterStore using in-memory storage.
// This implementation is for tests and development - data is lost on restart.
type DataCenterStore struct {
	mu sync.RWMutex

	dataCenters map[uuid.UUID]*models.DataCenter // data_center_id -> DataCenter
	order       []uuid.UUID                      // insertion order for pagination
}

// NewDataCenterStore creates a new in-memory data center store.
func NewDataCenterStore() *DataCenterStore {
	return &DataCenterStore{
		dataCenters: make(map[uuid.UUID]*models.DataCenter),
	}
}

// Create creates a new data center in memory.
func (s *DataCenterStore) Create(ctx context.Context, dc *models.DataCenter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.dataCenters[dc.ID]; exists {
		return store.ErrDataCenterAlreadyExists
	}
	if s.nameTaken(dc.Name, dc.ProjectID, uuid.Nil) {
		return store.ErrDataCenterAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *dc
	s.dataCenters[dc.ID] = &clone
	s.order = append(s.order, dc.ID)

	return nil
}

// Get retrieves a data center by ID within a project.
func (s *DataCenterStore) Get(ctx context.Context, dataCenterID, projectID uuid.UUID) (*models.DataCenter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dc, exists := s.dataCenters[dataCenterID]
	if !exists || dc.ProjectID != projectID {
		return nil, store.ErrDataCenterNotFound
	}

	clone := *dc
	return &clone, nil
}

// Fetch returns the data centers of a project, paginated in insertion order.
// When regionID is not uuid.Nil the result is filtered to that region.
func (s *DataCenterStore) Fetch(ctx context.Context, projectID, regionID uuid.UUID, page store.Page) ([]*models.DataCenter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.DataCenter
	for _, id := range s.order {
		dc, exists := s.dataCenters[id]
		if !exists || dc.ProjectID != projectID {
			continue
		}
		if regionID != uuid.Nil && dc.RegionID != regionID {
			continue
		}
		matched = append(matched, dc)
	}

	return paginate(matched, page), nil
}

// Update applies a partial update: nil fields are left unchanged.
func (s *DataCenterStore) Update(ctx context.Context, dataCenterID, projectID uuid.UUID, name, description *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dc, exists := s.dataCenters[dataCenterID]
	if !exists || dc.ProjectID != projectID {
		return store.ErrDataCenterNotFound
	}

	if name != nil {
		if s.nameTaken(*name, projectID, dataCenterID) {
			return store.ErrDataCenterAlreadyExists
		}
		dc.Name = *name
	}
	if description != nil {
		dc.Description = *description
	}
	dc.UpdatedAt = time.Now()

	return nil
}

// Delete deletes a data center by ID within a project.
func (s *DataCenterStore) Delete(ctx context.Context, dataCenterID, projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dc, exists := s.dataCenters[dataCenterID]
	if !exists || dc.ProjectID != projectID {
		return store.ErrDataCenterNotFound
	}

	delete(s.dataCenters, dataCenterID)
	s.order = slices.DeleteFunc(s.order, func(id uuid.UUID) bool { return id == dataCenterID })

	return nil
}

// NameExists reports whether the name is taken within the project, excluding
// excludeID when it is not uuid.Nil.
func (s *DataCenterStore) NameExists(ctx context.Context, name string, projectID, excludeID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nameTaken(name, projectID, excludeID), nil
}

func (s *DataCenterStore) nameTaken(name string, projectID, excludeID uuid.UUID) bool {
	for _, dc := range s.dataCenters {
		if dc.ID == excludeID {
			continue
		}
		if dc.ProjectID == projectID && dc.Name == name {
			return true
		}
	}
	return false
}
