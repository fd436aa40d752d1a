//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/qkhacks/controller/internal/models"
	"github.com/qkhacks/controller/internal/store"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := NewPool(ctx, &PoolConfig{
		ConnString: fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))

	return pool
}

// seedOrgAndUser satisfies the FK constraints on users and projects.
func seedOrgAndUser(t *testing.T, ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, uuid.UUID) {
	t.Helper()

	now := time.Now()
	org := &models.Organization{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      fmt.Sprintf("org-%s", uuid.Must(uuid.NewV7())),
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, NewOrganizationStore(pool).Create(ctx, org))

	user := &models.User{
		ID:             uuid.Must(uuid.NewV7()),
		Username:       "admin",
		PasswordHash:   "hash",
		OrganizationID: org.ID,
		Admin:          true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, NewUserStore(pool).Create(ctx, user))

	return org.ID, user.ID
}

func TestIntegration_Stores(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)

	orgID, userID := seedOrgAndUser(t, ctx, pool)

	t.Run("user fetch pages in creation order", func(t *testing.T) {
		userStore := NewUserStore(pool)
		base := time.Now()
		for i := range 5 {
			ts := base.Add(time.Duration(i) * time.Millisecond)
			require.NoError(t, userStore.Create(ctx, &models.User{
				ID:             uuid.Must(uuid.NewV7()),
				Username:       fmt.Sprintf("user-%d", i),
				PasswordHash:   "hash",
				OrganizationID: orgID,
				CreatedAt:      ts,
				UpdatedAt:      ts,
			}))
		}

		// seedOrgAndUser already inserted "admin" as the first row
		users, err := userStore.Fetch(ctx, orgID, store.Page{Number: 0, Size: 3})
		require.NoError(t, err)
		require.Len(t, users, 3)
		require.Equal(t, "admin", users[0].Username)
		require.Equal(t, "user-0", users[1].Username)
		require.Equal(t, "user-1", users[2].Username)

		users, err = userStore.Fetch(ctx, orgID, store.Page{Number: 1, Size: 3})
		require.NoError(t, err)
		require.Len(t, users, 3)
		require.Equal(t, "user-2", users[0].Username)
		require.Equal(t, "user-4", users[2].Username)
	})

	projectStore := NewProjectStore(pool)
	now := time.Now()
	project := &models.Project{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           "apollo",
		CreatorID:      userID,
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, projectStore.Create(ctx, project))

	t.Run("project unique index", func(t *testing.T) {
		dup := *project
		dup.ID = uuid.Must(uuid.NewV7())
		require.ErrorIs(t, projectStore.Create(ctx, &dup), store.ErrProjectAlreadyExists)
	})

	t.Run("project create rejects unknown organization", func(t *testing.T) {
		orphan := *project
		orphan.ID = uuid.Must(uuid.NewV7())
		orphan.Name = "orphan"
		orphan.OrganizationID = uuid.Must(uuid.NewV7())
		require.ErrorIs(t, projectStore.Create(ctx, &orphan), store.ErrOrganizationNotFound)
	})

	t.Run("project update with empty name keeps the name", func(t *testing.T) {
		require.NoError(t, projectStore.Update(ctx, project.ID, ""))

		got, err := projectStore.Get(ctx, project.ID)
		require.NoError(t, err)
		require.Equal(t, "apollo", got.Name)
	})

	t.Run("fetch by ids skips unknown ids", func(t *testing.T) {
		projects, err := projectStore.FetchByIDs(ctx, []uuid.UUID{project.ID, uuid.Must(uuid.NewV7())})
		require.NoError(t, err)
		require.Len(t, projects, 1)
	})

	accessStore := NewAccessStore(pool)

	t.Run("grant merges on conflict", func(t *testing.T) {
		grant := &models.ProjectAccess{
			ProjectID:   project.ID,
			UserID:      userID,
			Permissions: []string{"a", "b"},
			CreatorID:   userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		require.NoError(t, accessStore.Grant(ctx, grant))

		grant.Permissions = []string{"b", "c"}
		require.NoError(t, accessStore.Grant(ctx, grant))

		got, err := accessStore.Get(ctx, project.ID, userID)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"a", "b", "c"}, got.Permissions)
	})

	t.Run("has permission intersects the set", func(t *testing.T) {
		ok, err := accessStore.HasPermission(ctx, project.ID, userID, "c", "z")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = accessStore.HasPermission(ctx, project.ID, userID, "z")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("revoke filters the array and keeps the row", func(t *testing.T) {
		require.NoError(t, accessStore.Revoke(ctx, project.ID, userID, []string{"a", "b", "c"}))

		got, err := accessStore.Get(ctx, project.ID, userID)
		require.NoError(t, err)
		require.Empty(t, got.Permissions)

		ok, err := accessStore.HasAny(ctx, project.ID, userID)
		require.NoError(t, err)
		require.False(t, ok)

		// the emptied row still accepts revokes and new grants
		require.NoError(t, accessStore.Revoke(ctx, project.ID, userID, []string{"x"}))
		require.NoError(t, accessStore.Grant(ctx, &models.ProjectAccess{
			ProjectID: project.ID, UserID: userID,
			Permissions: []string{"all"},
			CreatorID:   userID, CreatedAt: now, UpdatedAt: now,
		}))
	})

	t.Run("revoke on an unknown pair", func(t *testing.T) {
		err := accessStore.Revoke(ctx, uuid.Must(uuid.NewV7()), userID, []string{"a"})
		require.ErrorIs(t, err, store.ErrAccessNotFound)
	})

	regionStore := NewRegionStore(pool)
	region := &models.Region{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           "us-east",
		Description:    "primary",
		ProjectID:      project.ID,
		OrganizationID: orgID,
		CreatorID:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, regionStore.Create(ctx, region))

	t.Run("region partial update", func(t *testing.T) {
		name := "us-west"
		require.NoError(t, regionStore.Update(ctx, region.ID, project.ID, &name, nil))

		got, err := regionStore.Get(ctx, region.ID, project.ID)
		require.NoError(t, err)
		require.Equal(t, "us-west", got.Name)
		require.Equal(t, "primary", got.Description)
	})

	t.Run("region get is project scoped", func(t *testing.T) {
		_, err := regionStore.Get(ctx, region.ID, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrRegionNotFound)
	})

	dcStore := NewDataCenterStore(pool)
	for i, regionID := range []uuid.UUID{region.ID, region.ID, uuid.Must(uuid.NewV7())} {
		require.NoError(t, dcStore.Create(ctx, &models.DataCenter{
			ID:             uuid.Must(uuid.NewV7()),
			Name:           fmt.Sprintf("dc-%d", i),
			RegionID:       regionID,
			ProjectID:      project.ID,
			OrganizationID: orgID,
			CreatorID:      userID,
			CreatedAt:      now,
			UpdatedAt:      now,
		}))
	}

	t.Run("data center fetch with optional region filter", func(t *testing.T) {
		all, err := dcStore.Fetch(ctx, project.ID, uuid.Nil, store.DefaultPage())
		require.NoError(t, err)
		require.Len(t, all, 3)

		filtered, err := dcStore.Fetch(ctx, project.ID, region.ID, store.DefaultPage())
		require.NoError(t, err)
		require.Len(t, filtered, 2)
	})

	keyStore := NewMachineKeyStore(pool)
	key := &models.MachineKey{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           "deploy",
		Key:            "s3cret",
		ProjectID:      project.ID,
		OrganizationID: orgID,
		CreatorID:      userID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, keyStore.Create(ctx, key))

	t.Run("machine key round trip keeps the secret", func(t *testing.T) {
		got, err := keyStore.Get(ctx, key.ID, project.ID)
		require.NoError(t, err)
		require.Equal(t, "s3cret", got.Key)
	})

	t.Run("deleting the organization cascades to users and projects", func(t *testing.T) {
		cascadeOrg, cascadeUser := seedOrgAndUser(t, ctx, pool)

		p := &models.Project{
			ID:             uuid.Must(uuid.NewV7()),
			Name:           "doomed",
			CreatorID:      cascadeUser,
			OrganizationID: cascadeOrg,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		require.NoError(t, projectStore.Create(ctx, p))

		require.NoError(t, NewOrganizationStore(pool).Delete(ctx, cascadeOrg))

		_, err := NewUserStore(pool).Get(ctx, cascadeUser)
		require.ErrorIs(t, err, store.ErrUserNotFound)
		_, err = projectStore.Get(ctx, p.ID)
		require.ErrorIs(t, err, store.ErrProjectNotFound)
	})
}
