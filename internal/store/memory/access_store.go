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

type accessKey struct {
	projectID uuid.UUID
	userID    uuid.UUID
}

// AccessStore implements store.AccessStore using in-memory storage. This
// implementation is for tests and development - data is lost on restart.
type AccessStore struct {
	mu sync.RWMutex

	grants map[accessKey]*models.ProjectAccess
	order  []accessKey // insertion order for pagination
}

// NewAccessStore creates a new in-memory access store.
func NewAccessStore() *AccessStore {
	return &AccessStore{
		grants: make(map[accessKey]*models.ProjectAccess),
	}
}

// Grant idempotently merges the grant's permissions into the existing grant
// for the (project, user) pair, inserting a new grant when none exists.
func (s *AccessStore) Grant(ctx context.Context, grant *models.ProjectAccess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := accessKey{projectID: grant.ProjectID, userID: grant.UserID}
	now := time.Now()

	existing, exists := s.grants[key]
	if !exists {
		clone := *grant
		clone.Permissions = dedupe(grant.Permissions)
		clone.CreatedAt = now
		clone.UpdatedAt = now
		s.grants[key] = &clone
		s.order = append(s.order, key)
		return nil
	}

	for _, perm := range grant.Permissions {
		if !slices.Contains(existing.Permissions, perm) {
			existing.Permissions = append(existing.Permissions, perm)
		}
	}
	existing.UpdatedAt = now

	return nil
}

// Revoke removes each listed permission from the grant. The grant row
// survives even when the resulting set becomes empty.
func (s *AccessStore) Revoke(ctx context.Context, projectID, userID uuid.UUID, permissions []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	grant, exists := s.grants[accessKey{projectID: projectID, userID: userID}]
	if !exists {
		return store.ErrAccessNotFound
	}

	kept := grant.Permissions[:0]
	for _, perm := range grant.Permissions {
		if !slices.Contains(permissions, perm) {
			kept = append(kept, perm)
		}
	}
	grant.Permissions = kept
	grant.UpdatedAt = time.Now()

	return nil
}

// Delete removes the grant entirely.
func (s *AccessStore) Delete(ctx context.Context, projectID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := accessKey{projectID: projectID, userID: userID}
	if _, exists := s.grants[key]; !exists {
		return store.ErrAccessNotFound
	}

	delete(s.grants, key)
	s.order = slices.DeleteFunc(s.order, func(k accessKey) bool { return k == key })

	return nil
}

// Get retrieves the grant for the pair.
func (s *AccessStore) Get(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectAccess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, exists := s.grants[accessKey{projectID: projectID, userID: userID}]
	if !exists {
		return nil, store.ErrAccessNotFound
	}

	clone := *grant
	clone.Permissions = slices.Clone(grant.Permissions)
	return &clone, nil
}

// HasPermission reports whether a grant exists for the pair whose set
// intersects the given permissions.
func (s *AccessStore) HasPermission(ctx context.Context, projectID, userID uuid.UUID, permissions ...string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, exists := s.grants[accessKey{projectID: projectID, userID: userID}]
	if !exists {
		return false, nil
	}

	for _, perm := range permissions {
		if grant.Has(perm) {
			return true, nil
		}
	}

	return false, nil
}

// HasAny reports whether a grant exists for the pair with a non-empty
// permission set.
func (s *AccessStore) HasAny(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, exists := s.grants[accessKey{projectID: projectID, userID: userID}]
	if !exists {
		return false, nil
	}

	return len(grant.Permissions) > 0, nil
}

// ListByProject returns the grants of a project, paginated in insertion order.
func (s *AccessStore) ListByProject(ctx context.Context, projectID uuid.UUID, page store.Page) ([]*models.ProjectAccess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(key accessKey) bool { return key.projectID == projectID }, page), nil
}

// ListByUser returns the grants held by a user, paginated in insertion order.
func (s *AccessStore) ListByUser(ctx context.Context, userID uuid.UUID, page store.Page) ([]*models.ProjectAccess, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.list(func(key accessKey) bool { return key.userID == userID }, page), nil
}

func (s *AccessStore) list(match func(accessKey) bool, page store.Page) []*models.ProjectAccess {
	var matched []*models.ProjectAccess
	for _, key := range s.order {
		if !match(key) {
			continue
		}
		grant := s.grants[key]
		clone := *grant
		clone.Permissions = slices.Clone(grant.Permissions)
		matched = append(matched, &clone)
	}

	return paginate(matched, page)
}

func dedupe(permissions []string) []string {
	var result []string
	for _, perm := range permissions {
		if !slices.Contains(result, perm) {
			result = append(result, perm)
		}
	}
	return result
}
