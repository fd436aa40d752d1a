package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/access"
	"github.com/qkhacks/controller/internal/auth"
	"github.com/qkhacks/controller/internal/models"
	"github.com/qkhacks/controller/internal/store"
	"github.com/rs/zerolog/log"
)

// MachineKeyService manages generated machine credentials within a project.
// Metadata reads only need some access on the project; revealing the secret
// requires the machine key admin permission.
type MachineKeyService struct {
	keyStore store.MachineKeyStore
	engine   *access.Engine
}

// NewMachineKeyService creates a new machine key service.
func NewMachineKeyService(keyStore store.MachineKeyStore, engine *access.Engine) *MachineKeyService {
	return &MachineKeyService{
		keyStore: keyStore,
		engine:   engine,
	}
}

// Create generates a machine key in a project. The secret is generated
// server-side and retrievable only through GetKey.
func (s *MachineKeyService) Create(ctx context.Context, name string, projectID uuid.UUID, caller auth.Identity) (*models.MachineKey, error) {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionMachineKeyAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, Forbiddenf("not allowed to manage machine keys")
	}

	if name == "" {
		return nil, InvalidInputf("name is required")
	}

	taken, err := s.keyStore.NameExists(ctx, name, projectID, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check machine key name: %w", err)
	}
	if taken {
		return nil, Conflictf("machine key %q already exists", name)
	}

	secret, err := auth.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	now := time.Now()
	key := &models.MachineKey{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           name,
		Key:            secret,
		ProjectID:      projectID,
		OrganizationID: caller.OrganizationID,
		CreatorID:      caller.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.keyStore.Create(ctx, key); err != nil {
		if errors.Is(err, store.ErrMachineKeyAlreadyExists) {
			return nil, Conflictf("machine key %q already exists", name)
		}
		return nil, fmt.Errorf("failed to create machine key: %w", err)
	}

	log.Info().
		Str("machine_key_id", key.ID.String()).
		Str("project_id", projectID.String()).
		Msg("Created machine key")

	return key, nil
}

// Fetch returns the machine keys of a project, metadata only.
func (s *MachineKeyService) Fetch(ctx context.Context, projectID uuid.UUID, caller auth.Identity, page store.Page) ([]*models.MachineKey, error) {
	ok, err := s.engine.HasAnyAccess(ctx, projectID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, NotFoundf("project not found")
	}

	keys, err := s.keyStore.Fetch(ctx, projectID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch machine keys: %w", err)
	}

	return keys, nil
}

// Get retrieves machine key metadata by ID within a project. The secret is
// not part of the serialized response.
func (s *MachineKeyService) Get(ctx context.Context, machineKeyID, projectID uuid.UUID, caller auth.Identity) (*models.MachineKey, error) {
	ok, err := s.engine.HasAnyAccess(ctx, projectID, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return nil, NotFoundf("project not found")
	}

	key, err := s.keyStore.Get(ctx, machineKeyID, projectID)
	if err != nil {
		if errors.Is(err, store.ErrMachineKeyNotFound) {
			return nil, NotFoundf("machine key not found")
		}
		return nil, fmt.Errorf("failed to get machine key: %w", err)
	}

	return key, nil
}

// GetKey reveals the secret of a machine key. Unlike metadata reads this
// requires the machine key admin permission.
func (s *MachineKeyService) GetKey(ctx context.Context, machineKeyID, projectID uuid.UUID, caller auth.Identity) (string, error) {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionMachineKeyAdmin)
	if err != nil {
		return "", fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return "", Forbiddenf("not allowed to read machine key secrets")
	}

	key, err := s.keyStore.Get(ctx, machineKeyID, projectID)
	if err != nil {
		if errors.Is(err, store.ErrMachineKeyNotFound) {
			return "", NotFoundf("machine key not found")
		}
		return "", fmt.Errorf("failed to get machine key: %w", err)
	}

	return key.Key, nil
}

// Update renames a machine key. The secret is immutable.
func (s *MachineKeyService) Update(ctx context.Context, machineKeyID, projectID uuid.UUID, name *string, caller auth.Identity) error {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionMachineKeyAdmin)
	if err != nil {
		return fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return Forbiddenf("not allowed to manage machine keys")
	}

	if name != nil && *name != "" {
		taken, err := s.keyStore.NameExists(ctx, *name, projectID, machineKeyID)
		if err != nil {
			return fmt.Errorf("failed to check machine key name: %w", err)
		}
		if taken {
			return Conflictf("machine key %q already exists", *name)
		}
	} else {
		name = nil
	}

	if err := s.keyStore.Update(ctx, machineKeyID, projectID, name); err != nil {
		if errors.Is(err, store.ErrMachineKeyNotFound) {
			return NotFoundf("machine key not found")
		}
		if errors.Is(err, store.ErrMachineKeyAlreadyExists) {
			return Conflictf("machine key name already exists")
		}
		return fmt.Errorf("failed to update machine key: %w", err)
	}

	return nil
}

// Delete deletes a machine key.
func (s *MachineKeyService) Delete(ctx context.Context, machineKeyID, projectID uuid.UUID, caller auth.Identity) error {
	ok, err := s.engine.HasAccess(ctx, projectID, caller.ID, access.PermissionMachineKeyAdmin)
	if err != nil {
		return fmt.Errorf("failed to check project access: %w", err)
	}
	if !ok {
		return Forbiddenf("not allowed to manage machine keys")
	}

	if err := s.keyStore.Delete(ctx, machineKeyID, projectID); err != nil {
		if errors.Is(err, store.ErrMachineKeyNotFound) {
			return NotFoundf("machine key not found")
		}
		return fmt.Errorf("failed to delete machine key: %w", err)
	}

	return nil
}
