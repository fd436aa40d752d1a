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

// AccessStore implements store.AccessStore using PostgreSQL. The permission
// set is stored as a TEXT[] column and all merge and revoke logic runs inside
// a single statement so concurrent grants never lose permissions.
type AccessStore struct {
	pool *pgxpool.Pool
}

// NewAccessStore creates a new PostgreSQL-backed access store.
func NewAccessStore(pool *pgxpool.Pool) *AccessStore {
	return &AccessStore{
		pool: pool,
	}
}

const accessColumns = `project_id, user_id, permissions, creator_id, created_at, updated_at`

// Grant inserts a grant for (project, user) or merges the permissions into the
// existing one. The existing grant's creator and creation time are preserved
// on merge.
func (s *AccessStore) Grant(ctx context.Context, grant *models.ProjectAccess) error {
	query := `
		INSERT INTO project_access (
			project_id, user_id, permissions, creator_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		ON CONFLICT (project_id, user_id) DO UPDATE SET
			permissions = (
				SELECT COALESCE(array_agg(DISTINCT p), '{}')
				FROM unnest(project_access.permissions || EXCLUDED.permissions) AS p
			),
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		grant.ProjectID,
		grant.UserID,
		grant.Permissions,
		grant.CreatorID,
		grant.CreatedAt,
		grant.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to grant project access: %w", err)
	}

	log.Debug().
		Str("project_id", grant.ProjectID.String()).
		Str("user_id", grant.UserID.String()).
		Strs("permissions", grant.Permissions).
		Msg("Granted project access")

	return nil
}

// Revoke removes the listed permissions from the grant. The row is kept even
// when the resulting set is empty.
func (s *AccessStore) Revoke(ctx context.Context, projectID, userID uuid.UUID, permissions []string) error {
	query := `
		UPDATE project_access SET
			permissions = (
				SELECT COALESCE(array_agg(p), '{}')
				FROM unnest(project_access.permissions) AS p
				WHERE p <> ALL($3::text[])
			),
			updated_at = $4
		WHERE project_id = $1 AND user_id = $2
	`

	result, err := s.pool.Exec(ctx, query, projectID, userID, permissions, time.Now())
	if err != nil {
		return fmt.Errorf("failed to revoke project access: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrAccessNotFound
	}

	return nil
}

// Delete removes the grant entirely.
func (s *AccessStore) Delete(ctx context.Context, projectID, userID uuid.UUID) error {
	query := `DELETE FROM project_access WHERE project_id = $1 AND user_id = $2`

	result, err := s.pool.Exec(ctx, query, projectID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project access: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrAccessNotFound
	}

	log.Debug().
		Str("project_id", projectID.String()).
		Str("user_id", userID.String()).
		Msg("Deleted project access")

	return nil
}

// Get retrieves the grant for (project, user).
func (s *AccessStore) Get(ctx context.Context, projectID, userID uuid.UUID) (*models.ProjectAccess, error) {
	query := `SELECT ` + accessColumns + ` FROM project_access WHERE project_id = $1 AND user_id = $2`

	grant, err := scanAccess(s.pool.QueryRow(ctx, query, projectID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrAccessNotFound
		}
		return nil, fmt.Errorf("failed to get project access: %w", err)
	}

	return grant, nil
}

// HasPermission reports whether the grant's set intersects the given
// permissions.
func (s *AccessStore) HasPermission(ctx context.Context, projectID, userID uuid.UUID, permissions ...string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM project_access
			WHERE project_id = $1 AND user_id = $2 AND permissions && $3::text[]
		)
	`

	var ok bool
	if err := s.pool.QueryRow(ctx, query, projectID, userID, permissions).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check project access: %w", err)
	}

	return ok, nil
}

// HasAny reports whether the grant exists with a non-empty permission set.
func (s *AccessStore) HasAny(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM project_access
			WHERE project_id = $1 AND user_id = $2 AND cardinality(permissions) > 0
		)
	`

	var ok bool
	if err := s.pool.QueryRow(ctx, query, projectID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check project access: %w", err)
	}

	return ok, nil
}

// ListByProject returns the grants of a project, paginated in insertion order.
func (s *AccessStore) ListByProject(ctx context.Context, projectID uuid.UUID, page store.Page) ([]*models.ProjectAccess, error) {
	query := `
		SELECT ` + accessColumns + ` FROM project_access
		WHERE project_id = $1
		ORDER BY created_at
		OFFSET $2 LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, projectID, page.Offset(), page.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to list project access: %w", err)
	}
	defer rows.Close()

	return scanAccessRows(rows)
}

// ListByUser returns the grants held by a user, paginated in insertion order.
func (s *AccessStore) ListByUser(ctx context.Context, userID uuid.UUID, page store.Page) ([]*models.ProjectAccess, error) {
	query := `
		SELECT ` + accessColumns + ` FROM project_access
		WHERE user_id = $1
		ORDER BY created_at
		OFFSET $2 LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, userID, page.Offset(), page.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to list project access: %w", err)
	}
	defer rows.Close()

	return scanAccessRows(rows)
}

func scanAccess(row pgx.Row) (*models.ProjectAccess, error) {
	var grant models.ProjectAccess
	err := row.Scan(
		&grant.ProjectID,
		&grant.UserID,
		&grant.Permissions,
		&grant.CreatorID,
		&grant.CreatedAt,
		&grant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &grant, nil
}

func scanAccessRows(rows pgx.Rows) ([]*models.ProjectAccess, error) {
	var grants []*models.ProjectAccess
	for rows.Next() {
		grant, err := scanAccess(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project access: %w", err)
		}
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project access: %w", err)
	}

	return grants, nil
}
