// Package service implements the application operations on top of the stores
// and the access engine. Every operation takes the caller identity explicitly
// and classifies failures through the error kinds in errors.go; transports
// translate those kinds to status codes.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
	"github.com/qkhacks/controller/internal/store"
)

// OrganizationService manages tenant organizations. Creation happens only
// through UserService.SignUp; this service covers the read side.
type OrganizationService struct {
	orgStore store.OrganizationStore
}

// NewOrganizationService creates a new organization service.
func NewOrganizationService(orgStore store.OrganizationStore) *OrganizationService {
	return &OrganizationService{
		orgStore: orgStore,
	}
}

// Get retrieves an organization by ID.
func (s *OrganizationService) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	org, err := s.orgStore.Get(ctx, orgID)
	if err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return nil, NotFoundf("organization not found")
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// GetByName retrieves an organization by its globally unique name.
func (s *OrganizationService) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	org, err := s.orgStore.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return nil, NotFoundf("organization not found")
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// NameExists reports whether an organization name is taken.
func (s *OrganizationService) NameExists(ctx context.Context, name string) (bool, error) {
	return s.orgStore.NameExists(ctx, name)
}
