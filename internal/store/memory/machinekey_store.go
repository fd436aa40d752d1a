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

// MachineKeyStore implements store.MachineKeyStore using in-memory storage.
// This implementation is for tests and development - data is lost on restart.
type MachineKeyStore struct {
	mu sync.RWMutex

	keys  map[uuid.UUID]*models.MachineKey // machine_key_id -> MachineKey
	order []uuid.UUID                      // insertion order for pagination
}

// NewMachineKeyStore creates a new in-memory machine key store.
func NewMachineKeyStore() *MachineKeyStore {
	return &MachineKeyStore{
		keys: make(map[uuid.UUID]*models.MachineKey),
	}
}

// Create creates a new machine key in memory.
func (s *MachineKeyStore) Create(ctx context.Context, key *models.MachineKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[key.ID]; exists {
		return store.ErrMachineKeyAlreadyExists
	}
	if s.nameTaken(key.Name, key.ProjectID, uuid.Nil) {
		return store.ErrMachineKeyAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *key
	s.keys[key.ID] = &clone
	s.order = append(s.order, key.ID)

	return nil
}

// Get retrieves a machine key by ID within a project.
func (s *MachineKeyStore) Get(ctx context.Context, machineKeyID, projectID uuid.UUID) (*models.MachineKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, exists := s.keys[machineKeyID]
	if !exists || key.ProjectID != projectID {
		return nil, store.ErrMachineKeyNotFound
	}

	clone := *key
	return &clone, nil
}

// Fetch returns the machine keys of a project, paginated in insertion order.
func (s *MachineKeyStore) Fetch(ctx context.Context, projectID uuid.UUID, page store.Page) ([]*models.MachineKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.MachineKey
	for _, id := range s.order {
		key, exists := s.keys[id]
		if !exists || key.ProjectID != projectID {
			continue
		}
		matched = append(matched, key)
	}

	return paginate(matched, page), nil
}

// Update applies a partial update: a nil name is left unchanged.
func (s *MachineKeyStore) Update(ctx context.Context, machineKeyID, projectID uuid.UUID, name *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, exists := s.keys[machineKeyID]
	if !exists || key.ProjectID != projectID {
		return store.ErrMachineKeyNotFound
	}

	if name != nil {
		if s.nameTaken(*name, projectID, machineKeyID) {
			return store.ErrMachineKeyAlreadyExists
		}
		key.Name = *name
	}
	key.UpdatedAt = time.Now()

	return nil
}

// Delete deletes a machine key by ID within a project.
func (s *MachineKeyStore) Delete(ctx context.Context, machineKeyID, projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, exists := s.keys[machineKeyID]
	if !exists || key.ProjectID != projectID {
		return store.ErrMachineKeyNotFound
	}

	delete(s.keys, machineKeyID)
	s.order = slices.DeleteFunc(s.order, func(id uuid.UUID) bool { return id == machineKeyID })

	return nil
}

// NameExists reports whether the name is taken within the project, excluding
// excludeID when it is not uuid.Nil.
func (s *MachineKeyStore) NameExists(ctx context.Context, name string, projectID, excludeID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nameTaken(name, projectID, excludeID), nil
}

func (s *MachineKeyStore) nameTaken(name string, projectID, excludeID uuid.UUID) bool {
	for _, key := range s.keys {
		if key.ID == excludeID {
			continue
		}
		if key.ProjectID == projectID && key.Name == name {
			return true
		}
	}
	return false
}
