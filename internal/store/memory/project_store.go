package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
	"github.com/qkhacks/controller/internal/store"
)

// ProjectStore implements store.ProjectStore using in-memory storage. This
// implementation is for tests and development - data is lost on restart.
type ProjectStore struct {
	mu sync.RWMutex

	projects map[uuid.UUID]*models.Project // project_id -> Project
}

// NewProjectStore creates a new in-memory project store.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{
		projects: make(map[uuid.UUID]*models.Project),
	}
}

// Create creates a new project in memory.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[project.ID]; exists {
		return store.ErrProjectAlreadyExists
	}
	if s.nameTaken(project.Name, project.OrganizationID, uuid.Nil) {
		return store.ErrProjectAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *project
	s.projects[project.ID] = &clone

	return nil
}

// Get retrieves a project by ID.
func (s *ProjectStore) Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, exists := s.projects[projectID]
	if !exists {
		return nil, store.ErrProjectNotFound
	}

	clone := *project
	return &clone, nil
}

// FetchByIDs returns the projects whose IDs are in the given set.
func (s *ProjectStore) FetchByIDs(ctx context.Context, projectIDs []uuid.UUID) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Project
	for _, id := range projectIDs {
		if project, exists := s.projects[id]; exists {
			clone := *project
			result = append(result, &clone)
		}
	}

	return result, nil
}

// Update renames a project. An empty name only bumps the updated_at timestamp.
func (s *ProjectStore) Update(ctx context.Context, projectID uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, exists := s.projects[projectID]
	if !exists {
		return store.ErrProjectNotFound
	}

	if name != "" {
		if s.nameTaken(name, project.OrganizationID, projectID) {
			return store.ErrProjectAlreadyExists
		}
		project.Name = name
	}
	project.UpdatedAt = time.Now()

	return nil
}

// Delete deletes a project by ID.
func (s *ProjectStore) Delete(ctx context.Context, projectID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[projectID]; !exists {
		return store.ErrProjectNotFound
	}

	delete(s.projects, projectID)

	return nil
}

// NameExists reports whether a project with the given name exists within the
// organization, excluding excludeID when it is not uuid.Nil.
func (s *ProjectStore) NameExists(ctx context.Context, name string, orgID, excludeID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nameTaken(name, orgID, excludeID), nil
}

func (s *ProjectStore) nameTaken(name string, orgID, excludeID uuid.UUID) bool {
	for _, project := range s.projects {
		if project.ID == excludeID {
			continue
		}
		if project.OrganizationID == orgID && project.Name == name {
			return true
		}
	}
	return false
}
