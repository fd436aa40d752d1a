package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qkhacks/controller/internal/models"
	"github.com/qkhacks/controller/internal/store"
	"github.com/rs/zerolog/log"
)

// UserStore implements store.UserStore using PostgreSQL. Writes scoped by
// organization filter on both the user ID and the organization ID so a user
// under a different tenant reports as not found.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new PostgreSQL-backed user store.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{
		pool: pool,
	}
}

const userColumns = `user_id, username, password_hash, organization_id, creator_id, admin, created_at, updated_at`

// Create creates a new user in the database.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (
			user_id, username, password_hash, organization_id,
			creator_id, admin, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := s.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.OrganizationID,
		user.CreatorID,
		user.Admin,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrUserAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	log.Debug().
		Str("user_id", user.ID.String()).
		Str("org_id", user.OrganizationID.String()).
		Msg("Created user")

	return nil
}

// Get retrieves a user by ID regardless of organization.
func (s *UserStore) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	return scanUser(s.pool.QueryRow(ctx, query, userID))
}

// GetByOrganization retrieves a user by ID within an organization.
func (s *UserStore) GetByOrganization(ctx context.Context, userID, orgID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1 AND organization_id = $2`

	return scanUser(s.pool.QueryRow(ctx, query, userID, orgID))
}

// GetByUsername retrieves a user by username within an organization.
func (s *UserStore) GetByUsername(ctx context.Context, username string, orgID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND organization_id = $2`

	return scanUser(s.pool.QueryRow(ctx, query, username, orgID))
}

// Fetch returns users of an organization, paginated in creation order.
func (s *UserStore) Fetch(ctx context.Context, orgID uuid.UUID, page store.Page) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE organization_id = $1 ORDER BY created_at OFFSET $2 LIMIT $3`

	rows, err := s.pool.Query(ctx, query, orgID, page.Offset(), page.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// FetchByIDs returns the users whose IDs are in the given set.
func (s *UserStore) FetchByIDs(ctx context.Context, userIDs []uuid.UUID) ([]*models.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = ANY($1)`

	rows, err := s.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users by ids: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// UpdatePassword replaces the password hash of a user.
func (s *UserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE user_id = $1`

	return s.execExpectingMatch(ctx, query, userID, passwordHash, time.Now())
}

// UpdatePasswordByOrganization replaces the password hash of a user within an
// organization.
func (s *UserStore) UpdatePasswordByOrganization(ctx context.Context, userID, orgID uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users SET password_hash = $3, updated_at = $4
		WHERE user_id = $1 AND organization_id = $2
	`

	return s.execExpectingMatch(ctx, query, userID, orgID, passwordHash, time.Now())
}

// SetAdmin toggles the admin flag of a user within an organization.
func (s *UserStore) SetAdmin(ctx context.Context, userID, orgID uuid.UUID, admin bool) error {
	query := `
		UPDATE users SET admin = $3, updated_at = $4
		WHERE user_id = $1 AND organization_id = $2
	`

	return s.execExpectingMatch(ctx, query, userID, orgID, admin, time.Now())
}

// Delete deletes a user by ID within an organization.
func (s *UserStore) Delete(ctx context.Context, userID, orgID uuid.UUID) error {
	query := `DELETE FROM users WHERE user_id = $1 AND organization_id = $2`

	return s.execExpectingMatch(ctx, query, userID, orgID)
}

// UsernameExists reports whether the username is taken within the organization.
func (s *UserStore) UsernameExists(ctx context.Context, username string, orgID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND organization_id = $2)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, username, orgID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}

	return exists, nil
}

func (s *UserStore) execExpectingMatch(ctx context.Context, query string, args ...any) error {
	result, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrUserNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.OrganizationID,
		&user.CreatorID,
		&user.Admin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func scanUsers(rows pgx.Rows) ([]*models.User, error) {
	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
