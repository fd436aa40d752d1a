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

// RegionStore implements store.RegionStore using PostgreSQL.
type RegionStore struct {
	pool *pgxpool.Pool
}

// NewRegionStore creates a new PostgreSQL-backed region store.
func NewRegionStore(pool *pgxpool.Pool) *RegionStore {
	return &RegionStore{
		pool: pool,
	}
}

const regionColumns = `region_id, name, description, project_id, organization_id, creator_id, created_at, updated_at`

// Create creates a new region in the database.
func (s *RegionStore) Create(ctx context.Context, region *models.Region) error {
	query := `
		INSERT INTO regions (
			region_id, name, description, project_id, organization_id, creator_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := s.pool.Exec(ctx, query,
		region.ID,
		region.Name,
		region.Description,
		region.ProjectID,
		region.OrganizationID,
		region.CreatorID,
		region.CreatedAt,
		region.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrRegionAlreadyExists
		}
		return fmt.Errorf("failed to create region: %w", err)
	}

	log.Debug().
		Str("region_id", region.ID.String()).
		Str("project_id", region.ProjectID.String()).
		Msg("Created region")

	return nil
}

// Get retrieves a region by ID within a project.
func (s *RegionStore) Get(ctx context.Context, regionID, projectID uuid.UUID) (*models.Region, error) {
	query := `SELECT ` + regionColumns + ` FROM regions WHERE region_id = $1 AND project_id = $2`

	region, err := scanRegion(s.pool.QueryRow(ctx, query, regionID, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrRegionNotFound
		}
		return nil, fmt.Errorf("failed to get region: %w", err)
	}

	return region, nil
}

// Fetch returns the regions of a project, paginated in insertion order.
func (s *RegionStore) Fetch(ctx context.Context, projectID uuid.UUID, page store.Page) ([]*models.Region, error) {
	query := `
		SELECT ` + regionColumns + ` FROM regions
		WHERE project_id = $1
		ORDER BY created_at
		OFFSET $2 LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, projectID, page.Offset(), page.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch regions: %w", err)
	}
	defer rows.Close()

	var regions []*models.Region
	for rows.Next() {
		region, err := scanRegion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, region)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating regions: %w", err)
	}

	return regions, nil
}

// Update applies a partial update to a region. Nil fields are left unchanged.
func (s *RegionStore) Update(ctx context.Context, regionID, projectID uuid.UUID, name, description *string) error {
	query := `
		UPDATE regions SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			updated_at = $5
		WHERE region_id = $1 AND project_id = $2
	`

	result, err := s.pool.Exec(ctx, query, regionID, projectID, name, description, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrRegionAlreadyExists
		}
		return fmt.Errorf("failed to update region: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrRegionNotFound
	}

	return nil
}

// Delete deletes a region by ID within a project.
func (s *RegionStore) Delete(ctx context.Context, regionID, projectID uuid.UUID) error {
	query := `DELETE FROM regions WHERE region_id = $1 AND project_id = $2`

	result, err := s.pool.Exec(ctx, query, regionID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete region: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrRegionNotFound
	}

	log.Info().
		Str("region_id", regionID.String()).
		Str("project_id", projectID.String()).
		Msg("Deleted region")

	return nil
}

// Exists reports whether the region exists within the project.
func (s *RegionStore) Exists(ctx context.Context, regionID, projectID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM regions WHERE region_id = $1 AND project_id = $2)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, regionID, projectID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check region: %w", err)
	}

	return exists, nil
}

// NameExists reports whether a region with the given name exists within the
// project, excluding excludeID when it is not uuid.Nil.
func (s *RegionStore) NameExists(ctx context.Context, name string, projectID, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM regions
			WHERE name = $1 AND project_id = $2 AND region_id <> $3
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, name, projectID, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check region name: %w", err)
	}

	return exists, nil
}

func scanRegion(row pgx.Row) (*models.Region, error) {
	var region models.Region
	err := row.Scan(
		&region.ID,
		&region.Name,
		&region.Description,
		&region.ProjectID,
		&region.OrganizationID,
		&region.CreatorID,
		&region.CreatedAt,
		&region.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &region, nil
}
