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

// MachineKeyStore implements store.MachineKeyStore using PostgreSQL.
type MachineKeyStore struct {
	pool *pgxpool.Pool
}

// NewMachineKeyStore creates a new PostgreSQL-backed machine key store.
func NewMachineKeyStore(pool *pgxpool.Pool) *MachineKeyStore {
	return &MachineKeyStore{
		pool: pool,
	}
}

const machineKeyColumns = `machine_key_id, name, key, project_id, organization_id, creator_id, created_at, updated_at`

// Create creates a new machine key in the database.
func (s *MachineKeyStore) Create(ctx context.Context, key *models.MachineKey) error {
	query := `
		INSERT INTO machine_keys (
			machine_key_id, name, key, project_id, organization_id, creator_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := s.pool.Exec(ctx, query,
		key.ID,
		key.Name,
		key.Key,
		key.ProjectID,
		key.OrganizationID,
		key.CreatorID,
		key.CreatedAt,
		key.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrMachineKeyAlreadyExists
		}
		return fmt.Errorf("failed to create machine key: %w", err)
	}

	log.Debug().
		Str("machine_key_id", key.ID.String()).
		Str("project_id", key.ProjectID.String()).
		Msg("Created machine key")

	return nil
}

// Get retrieves a machine key by ID within a project, including the secret.
func (s *MachineKeyStore) Get(ctx context.Context, machineKeyID, projectID uuid.UUID) (*models.MachineKey, error) {
	query := `SELECT ` + machineKeyColumns + ` FROM machine_keys WHERE machine_key_id = $1 AND project_id = $2`

	key, err := scanMachineKey(s.pool.QueryRow(ctx, query, machineKeyID, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrMachineKeyNotFound
		}
		return nil, fmt.Errorf("failed to get machine key: %w", err)
	}

	return key, nil
}

// Fetch returns the machine keys of a project, paginated in insertion order.
func (s *MachineKeyStore) Fetch(ctx context.Context, projectID uuid.UUID, page store.Page) ([]*models.MachineKey, error) {
	query := `
		SELECT ` + machineKeyColumns + ` FROM machine_keys
		WHERE project_id = $1
		ORDER BY created_at
		OFFSET $2 LIMIT $3
	`

	rows, err := s.pool.Query(ctx, query, projectID, page.Offset(), page.Limit())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch machine keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.MachineKey
	for rows.Next() {
		key, err := scanMachineKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan machine key: %w", err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating machine keys: %w", err)
	}

	return keys, nil
}

// Update renames a machine key. A nil name only bumps the updated_at
// timestamp; the secret is immutable.
func (s *MachineKeyStore) Update(ctx context.Context, machineKeyID, projectID uuid.UUID, name *string) error {
	query := `
		UPDATE machine_keys SET
			name = COALESCE($3, name),
			updated_at = $4
		WHERE machine_key_id = $1 AND project_id = $2
	`

	result, err := s.pool.Exec(ctx, query, machineKeyID, projectID, name, time.Now())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrMachineKeyAlreadyExists
		}
		return fmt.Errorf("failed to update machine key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrMachineKeyNotFound
	}

	return nil
}

// Delete deletes a machine key by ID within a project.
func (s *MachineKeyStore) Delete(ctx context.Context, machineKeyID, projectID uuid.UUID) error {
	query := `DELETE FROM machine_keys WHERE machine_key_id = $1 AND project_id = $2`

	result, err := s.pool.Exec(ctx, query, machineKeyID, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete machine key: %w", err)
	}

	if result.RowsAffected() == 0 {
		return store.ErrMachineKeyNotFound
	}

	log.Info().
		Str("machine_key_id", machineKeyID.String()).
		Str("project_id", projectID.String()).
		Msg("Deleted machine key")

	return nil
}

// NameExists reports whether a machine key with the given name exists within
// the project, excluding excludeID when it is not uuid.Nil.
func (s *MachineKeyStore) NameExists(ctx context.Context, name string, projectID, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM machine_keys
			WHERE name = $1 AND project_id = $2 AND machine_key_id <> $3
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, name, projectID, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check machine key name: %w", err)
	}

	return exists, nil
}

func scanMachineKey(row pgx.Row) (*models.MachineKey, error) {
	var key models.MachineKey
	err := row.Scan(
		&key.ID,
		&key.Name,
		&key.Key,
		&key.ProjectID,
		&key.OrganizationID,
		&key.CreatorID,
		&key.CreatedAt,
		&key.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &key, nil
}
