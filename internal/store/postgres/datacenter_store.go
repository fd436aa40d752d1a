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

// DataCenterStore implements store.DataCenterStore using PostgreSQL. The
// region_id column carries no foreign key; deleting a region leaves its data
// centers behind with a dangling reference, which readers tolerate.
type DataCenterStore struct {
	pool *pgxpool.Pool
}

// NewDataCenterStore creates a new PostgreSQL-backed data center store.
func NewDataCenterStore(pool *pgxpool.Pool) *DataCenterStore {
	return &DataCenterStore{
		pool: pool,
	}
}

const dataCenterColumns = `data_center_id, name, description, region_id, project_id, organization_id, creator_id, created_at, updated_at`

// Create creates a new data center in the database.
func (s *DataCenterStore) Create(ctx context.Context, dc *models.DataCenter) error {
	query := `
		INSERT INTO data_centers (
			data_center_id, name, description, region_id, project_id, organization_id, creator_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := s.pool.Exec(ctx, query,
		dc.ID,
		dc.Name,
		dc.Description,
		dc.RegionID,
		dc.ProjectID,
		dc.OrganizationID,
		dc.CreatorID,
		dc.CreatedAt,
		dc.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDataCenterAlreadyExists
		}
		return fmt.Errorf("failed to create data center: %w", err)
	}

	log.Debug().
		Str("data_center_id", dc.ID.String()).
		Str("project_id", dc.ProjectID.String()).
		Msg("Created data center")

	return nil
}

// Get retrieves a data center by ID within a project.
func (s *DataCenterStore) Get(ctx context.Context, dataCenterID, projectID uuid.UUID) (*models.DataCenter, error) {
	query := `SELECT ` + dataCenterColumns + ` FROM data_centers WHERE data_center_id = $1 AND project_id = $2`

	dc, err := scanDataCenter(s.pool.QueryRow(ctx, query, dataCenterID, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrDataCenterNotFound
		}
		return nil, fmt.Errorf("failed to get data center: %w", err)
	}

	return dc, nil
}

// Fetch returns the data centers of a project, paginated in insertion order.
// When regionID is not uuid.Nil the result is filtered to that region.
func (s *DataCenterStore) Fetch(ctx context.Context, projectID, regionID uuid.UUID, page store.Page) ([]*models.DataCenter, error) {
	query := `
		SELECT ` + dataCenterColumns + ` FROM data_centers
		WHERE project_id = $1 AND ($2::uuid = '00000000-0000-0000-0000-000000000000' OR region_id = $2)
		ORDER BY created_at
		OFFSET $3 LIMIT $4
	`

	rows, err := s.pool.Query(ctx, query, projectID, regionID, page.Offset(), page.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data centers: %w", err)
	}
	defer rows.Close()

	var dcs []*models.DataCenter
	for rows.Next() {
		dc, err := scanDataCenter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan data center: %w", err)
		}
		dcs = append(dcs, dc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating data centers: %w", err)
	}

	return dcs, nil
}

// Update applies a partial update to a data center. Nil fields are left
// unchanged; the region reference cannot be changed.
func (s *DataCenterStore) Update(ctx context.Context, dataCenterID, projectID uuid.UUID, name, description *string) error {
	query := `
		UPDATE data_centers SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			updated_at = $5
		WHERE data_center_id = $1 AND project_id = $2
	`

	result, err := s.pool.Exec(ctx, query, dataCenterID, projectID, name, description, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDataCenterAlreadyExists
		}
		return fmt.Errorf("failed to update data center: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrDataCenterNotFound
	}

	return nil
}

// Delete deletes a data center by ID within a project.
func (s *DataCenterStore) Delete(ctx context.Context, dataCenterID, projectID uuid.UUID) error {
	query := `DELETE FROM data_centers WHERE data_center_id = $1 AND project_id = $2`

	result, err := s.pool.Exec(ctx, query, dataCenterID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete data center: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrDataCenterNotFound
	}

	log.Info().
		Str("data_center_id", dataCenterID.String()).
		Str("project_id", projectID.String()).
		Msg("Deleted data center")

	return nil
}

// NameExists reports whether a data center with the given name exists within
// the project, excluding excludeID when it is not uuid.Nil.
func (s *DataCenterStore) NameExists(ctx context.Context, name string, projectID, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM data_centers
			WHERE name = $1 AND project_id = $2 AND data_center_id <> $3
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, name, projectID, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check data center name: %w", err)
	}

	return exists, nil
}

func scanDataCenter(row pgx.Row) (*models.DataCenter, error) {
	var dc models.DataCenter
	err := row.Scan(
		&dc.ID,
		&dc.Name,
		&dc.Description,
		&dc.RegionID,
		&dc.ProjectID,
		&dc.OrganizationID,
		&dc.CreatorID,
		&dc.CreatedAt,
		&dc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &dc, nil
}
