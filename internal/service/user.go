package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/auth"
	"github.com/qkhacks/controller/internal/models"
	"github.com/qkhacks/controller/internal/store"
	"github.com/rs/zerolog/log"
)

// credentialErr is deliberately identical for every failure mode of Token so
// the response never reveals whether the organization, user or password was
// the wrong part.
const credentialErr = "invalid username, password or organization"

// UserService manages accounts: sign-up, token issuance, and the
// admin-facing user management within an organization.
type UserService struct {
	userStore   store.UserStore
	orgStore    store.OrganizationStore
	tokenIssuer *auth.TokenIssuer
}

// NewUserService creates a new user service.
func NewUserService(userStore store.UserStore, orgStore store.OrganizationStore, tokenIssuer *auth.TokenIssuer) *UserService {
	return &UserService{
		userStore:   userStore,
		orgStore:    orgStore,
		tokenIssuer: tokenIssuer,
	}
}

// SignUp creates a new organization together with its first admin user. The
// organization is created first; if the user insert fails the organization is
// deleted again, so a failed sign-up never leaves either half behind.
func (s *UserService) SignUp(ctx context.Context, username, password, orgName string) (*models.User, error) {
	if username == "" || password == "" || orgName == "" {
		return nil, InvalidInputf("username, password and organization are required")
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	org := &models.Organization{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      orgName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.orgStore.Create(ctx, org); err != nil {
		if errors.Is(err, store.ErrOrganizationAlreadyExists) {
			return nil, Conflictf("organization %q already exists", orgName)
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	user := &models.User{
		ID:             uuid.Must(uuid.NewV7()),
		Username:       username,
		PasswordHash:   passwordHash,
		OrganizationID: org.ID,
		Admin:          true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if delErr := s.orgStore.Delete(ctx, org.ID); delErr != nil {
			log.Error().Err(delErr).
				Str("organization_id", org.ID.String()).
				Msg("Failed to roll back organization after sign-up failure")
		}
		if errors.Is(err, store.ErrUserAlreadyExists) {
			return nil, Conflictf("username %q already exists in organization", username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.orgStore.SetCreator(ctx, org.ID, user.ID); err != nil {
		log.Warn().Err(err).
			Str("organization_id", org.ID.String()).
			Msg("Failed to record organization creator")
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("organization_id", org.ID.String()).
		Msg("New organization signed up")

	return user, nil
}

// Token authenticates a user by (organization name, username, password) and
// issues an access token.
func (s *UserService) Token(ctx context.Context, username, password, orgName string) (string, error) {
	org, err := s.orgStore.GetByName(ctx, orgName)
	if err != nil {
		if errors.Is(err, store.ErrOrganizationNotFound) {
			return "", InvalidInputf(credentialErr)
		}
		return "", fmt.Errorf("failed to resolve organization: %w", err)
	}

	user, err := s.userStore.GetByUsername(ctx, username, org.ID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", InvalidInputf(credentialErr)
		}
		return "", fmt.Errorf("failed to resolve user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", InvalidInputf(credentialErr)
	}

	token, err := s.tokenIssuer.Issue(auth.Identity{
		ID:             user.ID,
		OrganizationID: user.OrganizationID,
		Admin:          user.Admin,
	})
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userStore.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, NotFoundf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetByOrganization retrieves a user by ID within the caller's organization.
// Users of other tenants are reported as not found.
func (s *UserService) GetByOrganization(ctx context.Context, userID uuid.UUID, caller auth.Identity) (*models.User, error) {
	user, err := s.userStore.GetByOrganization(ctx, userID, caller.OrganizationID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, NotFoundf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Fetch returns the users of the caller's organization.
func (s *UserService) Fetch(ctx context.Context, caller auth.Identity, page store.Page) ([]*models.User, error) {
	users, err := s.userStore.Fetch(ctx, caller.OrganizationID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, nil
}

// Add creates a user in the caller's organization with a generated password.
// The plaintext password is returned exactly once.
func (s *UserService) Add(ctx context.Context, username string, admin bool, caller auth.Identity) (*models.User, string, error) {
	if !caller.Admin {
		return nil, "", Forbiddenf("only organization admins can add users")
	}
	if username == "" {
		return nil, "", InvalidInputf("username is required")
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate password: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:             uuid.Must(uuid.NewV7()),
		Username:       username,
		PasswordHash:   passwordHash,
		OrganizationID: caller.OrganizationID,
		CreatorID:      &caller.ID,
		Admin:          admin,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserAlreadyExists) {
			return nil, "", Conflictf("username %q already exists in organization", username)
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("creator_id", caller.ID.String()).
		Msg("Added user")

	return user, password, nil
}

// ChangePassword replaces the caller's own password.
func (s *UserService) ChangePassword(ctx context.Context, password string, caller auth.Identity) error {
	if password == "" {
		return InvalidInputf("password is required")
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userStore.UpdatePassword(ctx, caller.ID, passwordHash); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return NotFoundf("user not found")
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// ResetPassword sets a generated password on a user within the caller's
// organization and returns the plaintext once.
func (s *UserService) ResetPassword(ctx context.Context, userID uuid.UUID, caller auth.Identity) (string, error) {
	if !caller.Admin {
		return "", Forbiddenf("only organization admins can reset passwords")
	}

	password, err := auth.GeneratePassword()
	if err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userStore.UpdatePasswordByOrganization(ctx, userID, caller.OrganizationID, passwordHash); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", NotFoundf("user not found")
		}
		return "", fmt.Errorf("failed to reset password: %w", err)
	}

	return password, nil
}

// ChangeAdmin toggles the admin flag of a user within the caller's
// organization.
func (s *UserService) ChangeAdmin(ctx context.Context, userID uuid.UUID, admin bool, caller auth.Identity) error {
	if !caller.Admin {
		return Forbiddenf("only organization admins can change admin status")
	}

	if err := s.userStore.SetAdmin(ctx, userID, caller.OrganizationID, admin); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return NotFoundf("user not found")
		}
		return fmt.Errorf("failed to change admin status: %w", err)
	}

	return nil
}

// Delete removes a user from the caller's organization.
func (s *UserService) Delete(ctx context.Context, userID uuid.UUID, caller auth.Identity) error {
	if !caller.Admin {
		return Forbiddenf("only organization admins can delete users")
	}

	if err := s.userStore.Delete(ctx, userID, caller.OrganizationID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return NotFoundf("user not found")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("caller_id", caller.ID.String()).
		Msg("Deleted user")

	return nil
}
