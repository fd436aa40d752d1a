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

// ProjectStore implements store.ProjectStore using PostgreSQL.
type ProjectStore struct {
	pool *pgxpool.Pool
}

// NewProjectStore creates a new PostgreSQL-backed project store.
func NewProjectStore(pool *pgxpool.Pool) *ProjectStore {
	return &ProjectStore{
		pool: pool,
	}
}

const projectColumns = `project_id, name, creator_id, organization_id, created_at, updated_at`

// Create creates a new project in the database.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (
			project_id, name, creator_id, organization_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`

	_, err := s.pool.Exec(ctx, query,
		project.ID,
		project.Name,
		project.CreatorID,
		project.OrganizationID,
		project.CreatedAt,
		project.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrProjectAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	log.Debug().
		Str("project_id", project.ID.String()).
		Str("name", project.Name).
		Msg("Created project")

	return nil
}

// Get retrieves a project by ID.
func (s *ProjectStore) Get(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE project_id = $1`

	var project models.Project
	err := s.pool.QueryRow(ctx, query, projectID).Scan(
		&project.ID,
		&project.Name,
		&project.CreatorID,
		&project.OrganizationID,
		&project.CreatedAt,
		&project.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &project, nil
}

// FetchByIDs returns the projects whose IDs are in the given set.
func (s *ProjectStore) FetchByIDs(ctx context.Context, projectIDs []uuid.UUID) ([]*models.Project, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + projectColumns + ` FROM projects WHERE project_id = ANY($1)`

	rows, err := s.pool.Query(ctx, query, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var project models.Project
		err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.CreatorID,
			&project.OrganizationID,
			&project.CreatedAt,
			&project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// Update renames a project. An empty name only bumps the updated_at timestamp.
func (s *ProjectStore) Update(ctx context.Context, projectID uuid.UUID, name string) error {
	query := `
		UPDATE projects SET
			name = CASE WHEN $2 = '' THEN name ELSE $2 END,
			updated_at = $3
		WHERE project_id = $1
	`

	result, err := s.pool.Exec(ctx, query, projectID, name, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrProjectAlreadyExists
		}
		return fmt.Errorf("failed to update project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrProjectNotFound
	}

	return nil
}

// Delete deletes a project by ID.
func (s *ProjectStore) Delete(ctx context.Context, projectID uuid.UUID) error {
	query := `DELETE FROM projects WHERE project_id = $1`

	result, err := s.pool.Exec(ctx, query, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrProjectNotFound
	}

	log.Info().
		Str("project_id", projectID.String()).
		Msg("Deleted project")

	return nil
}

// NameExists reports whether a project with the given name exists within the
// organization, excluding excludeID when it is not uuid.Nil.
func (s *ProjectStore) NameExists(ctx context.Context, name string, orgID, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM projects
			WHERE name = $1 AND organization_id = $2 AND project_id <> $3
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, name, orgID, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check project name: %w", err)
	}

	return exists, nil
}
