package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
	"github.com/qkhacks/controller/internal/store"
)

type usernameKey struct {
	orgID    uuid.UUID
	username string
}

// UserStore implements store.UserStore using in-memory storage. This
// implementation is for tests and development - data is lost on restart.
type UserStore struct {
	mu sync.RWMutex

	users      map[uuid.UUID]*models.User // user_id -> User
	byUsername map[usernameKey]uuid.UUID  // (org_id, username) -> user_id
	order      []uuid.UUID                // insertion order for pagination
}

// NewUserStore creates a new in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:      make(map[uuid.UUID]*models.User),
		byUsername: make(map[usernameKey]uuid.UUID),
	}
}

// Create creates a new user in memory.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return store.ErrUserAlreadyExists
	}

	key := usernameKey{orgID: user.OrganizationID, username: user.Username}
	if _, exists := s.byUsername[key]; exists {
		return store.ErrUserAlreadyExists
	}

	// Clone to avoid external modifications
	clone := *user
	s.users[user.ID] = &clone
	s.byUsername[key] = user.ID
	s.order = append(s.order, user.ID)

	return nil
}

// Get retrieves a user by ID.
func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

// GetByOrganization retrieves a user by ID within an organization.
func (s *UserStore) GetByOrganization(ctx context.Context, userID, orgID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[userID]
	if !exists || user.OrganizationID != orgID {
		return nil, store.ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

// GetByUsername retrieves a user by username within an organization.
func (s *UserStore) GetByUsername(ctx context.Context, username string, orgID uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, exists := s.byUsername[usernameKey{orgID: orgID, username: username}]
	if !exists {
		return nil, store.ErrUserNotFound
	}

	clone := *s.users[userID]
	return &clone, nil
}

// Fetch returns users of an organization, paginated in insertion order.
func (s *UserStore) Fetch(ctx context.Context, orgID uuid.UUID, page store.Page) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.User
	for _, id := range s.order {
		user, exists := s.users[id]
		if !exists || user.OrganizationID != orgID {
			continue
		}
		matched = append(matched, user)
	}

	return paginate(matched, page), nil
}

// FetchByIDs returns the users whose IDs are in the given set.
func (s *UserStore) FetchByIDs(ctx context.Context, userIDs []uuid.UUID) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.User
	for _, id := range userIDs {
		if user, exists := s.users[id]; exists {
			clone := *user
			result = append(result, &clone)
		}
	}

	return result, nil
}

// UpdatePassword replaces the password hash of a user.
func (s *UserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return store.ErrUserNotFound
	}

	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()

	return nil
}

// UpdatePasswordByOrganization replaces the password hash of a user within an
// organization.
func (s *UserStore) UpdatePasswordByOrganization(ctx context.Context, userID, orgID uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists || user.OrganizationID != orgID {
		return store.ErrUserNotFound
	}

	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()

	return nil
}

// SetAdmin toggles the admin flag of a user within an organization.
func (s *UserStore) SetAdmin(ctx context.Context, userID, orgID uuid.UUID, admin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists || user.OrganizationID != orgID {
		return store.ErrUserNotFound
	}

	user.Admin = admin
	user.UpdatedAt = time.Now()

	return nil
}

// Delete deletes a user by ID within an organization.
func (s *UserStore) Delete(ctx context.Context, userID, orgID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists || user.OrganizationID != orgID {
		return store.ErrUserNotFound
	}

	delete(s.byUsername, usernameKey{orgID: user.OrganizationID, username: user.Username})
	delete(s.users, userID)

	return nil
}

// UsernameExists reports whether the username is taken within the organization.
func (s *UserStore) UsernameExists(ctx context.Context, username string, orgID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.byUsername[usernameKey{orgID: orgID, username: username}]
	return exists, nil
}
