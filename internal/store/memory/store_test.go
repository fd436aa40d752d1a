package memory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/qkhacks/controller/internal/models"
	"github.com/qkhacks/controller/internal/store"
	"github.com/stretchr/testify/require"
)

func newUser(orgID uuid.UUID, username string) *models.User {
	now := time.Now()
	return &models.User{
		ID:             uuid.Must(uuid.NewV7()),
		Username:       username,
		PasswordHash:   "hash",
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestUserStore(t *testing.T) {
	ctx := t.Context()
	userStore := NewUserStore()

	orgA := uuid.Must(uuid.NewV7())
	orgB := uuid.Must(uuid.NewV7())

	alice := newUser(orgA, "alice")
	require.NoError(t, userStore.Create(ctx, alice))

	t.Run("duplicate username within organization", func(t *testing.T) {
		require.ErrorIs(t, userStore.Create(ctx, newUser(orgA, "alice")), store.ErrUserAlreadyExists)
	})

	t.Run("same username in another organization", func(t *testing.T) {
		require.NoError(t, userStore.Create(ctx, newUser(orgB, "alice")))
	})

	t.Run("get by organization is tenant scoped", func(t *testing.T) {
		got, err := userStore.GetByOrganization(ctx, alice.ID, orgA)
		require.NoError(t, err)
		require.Equal(t, "alice", got.Username)

		_, err = userStore.GetByOrganization(ctx, alice.ID, orgB)
		require.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("get by username", func(t *testing.T) {
		got, err := userStore.GetByUsername(ctx, "alice", orgA)
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)

		_, err = userStore.GetByUsername(ctx, "nobody", orgA)
		require.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("returned user is a copy", func(t *testing.T) {
		got, err := userStore.Get(ctx, alice.ID)
		require.NoError(t, err)
		got.Username = "mutated"

		again, err := userStore.Get(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, "alice", again.Username)
	})

	t.Run("delete frees the username", func(t *testing.T) {
		bob := newUser(orgA, "bob")
		require.NoError(t, userStore.Create(ctx, bob))
		require.NoError(t, userStore.Delete(ctx, bob.ID, orgA))
		require.NoError(t, userStore.Create(ctx, newUser(orgA, "bob")))
	})

	t.Run("delete is tenant scoped", func(t *testing.T) {
		require.ErrorIs(t, userStore.Delete(ctx, alice.ID, orgB), store.ErrUserNotFound)
	})

	t.Run("fetch paginates within the organization", func(t *testing.T) {
		userStore := NewUserStore()
		for _, name := range []string{"u1", "u2", "u3"} {
			require.NoError(t, userStore.Create(ctx, newUser(orgA, name)))
		}
		require.NoError(t, userStore.Create(ctx, newUser(orgB, "other")))

		users, err := userStore.Fetch(ctx, orgA, store.Page{Number: 0, Size: 2})
		require.NoError(t, err)
		require.Len(t, users, 2)
		require.Equal(t, "u1", users[0].Username)

		users, err = userStore.Fetch(ctx, orgA, store.Page{Number: 1, Size: 2})
		require.NoError(t, err)
		require.Len(t, users, 1)
		require.Equal(t, "u3", users[0].Username)
	})

	t.Run("fetch by ids skips unknown ids", func(t *testing.T) {
		users, err := userStore.FetchByIDs(ctx, []uuid.UUID{alice.ID, uuid.Must(uuid.NewV7())})
		require.NoError(t, err)
		require.Len(t, users, 1)
		require.Equal(t, alice.ID, users[0].ID)
	})
}

func TestProjectStore(t *testing.T) {
	ctx := t.Context()
	projectStore := NewProjectStore()

	orgID := uuid.Must(uuid.NewV7())
	now := time.Now()
	project := &models.Project{
		ID:             uuid.Must(uuid.NewV7()),
		Name:           "apollo",
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, projectStore.Create(ctx, project))

	t.Run("duplicate name within organization", func(t *testing.T) {
		dup := *project
		dup.ID = uuid.Must(uuid.NewV7())
		require.ErrorIs(t, projectStore.Create(ctx, &dup), store.ErrProjectAlreadyExists)
	})

	t.Run("rename to a taken name", func(t *testing.T) {
		other := &models.Project{ID: uuid.Must(uuid.NewV7()), Name: "artemis", OrganizationID: orgID}
		require.NoError(t, projectStore.Create(ctx, other))
		require.ErrorIs(t, projectStore.Update(ctx, other.ID, "apollo"), store.ErrProjectAlreadyExists)
	})

	t.Run("empty name only touches the timestamp", func(t *testing.T) {
		require.NoError(t, projectStore.Update(ctx, project.ID, ""))

		got, err := projectStore.Get(ctx, project.ID)
		require.NoError(t, err)
		require.Equal(t, "apollo", got.Name)
		require.True(t, got.UpdatedAt.After(now))
	})

	t.Run("name exists excludes the given project", func(t *testing.T) {
		taken, err := projectStore.NameExists(ctx, "apollo", orgID, project.ID)
		require.NoError(t, err)
		require.False(t, taken)

		taken, err = projectStore.NameExists(ctx, "apollo", orgID, uuid.Nil)
		require.NoError(t, err)
		require.True(t, taken)
	})
}

func TestAccessStore(t *testing.T) {
	ctx := t.Context()
	accessStore := NewAccessStore()

	projectID := uuid.Must(uuid.NewV7())
	userID := uuid.Must(uuid.NewV7())

	grant := func(perms ...string) error {
		return accessStore.Grant(ctx, &models.ProjectAccess{
			ProjectID:   projectID,
			UserID:      userID,
			Permissions: perms,
			CreatorID:   userID,
		})
	}

	t.Run("grant merges and dedupes", func(t *testing.T) {
		require.NoError(t, grant("a", "a"))
		require.NoError(t, grant("a", "b"))

		got, err := accessStore.Get(ctx, projectID, userID)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"a", "b"}, got.Permissions)
	})

	t.Run("has permission intersects", func(t *testing.T) {
		ok, err := accessStore.HasPermission(ctx, projectID, userID, "b", "c")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = accessStore.HasPermission(ctx, projectID, userID, "c")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("revoke keeps the emptied row", func(t *testing.T) {
		require.NoError(t, accessStore.Revoke(ctx, projectID, userID, []string{"a", "b"}))

		got, err := accessStore.Get(ctx, projectID, userID)
		require.NoError(t, err)
		require.Empty(t, got.Permissions)

		ok, err := accessStore.HasAny(ctx, projectID, userID)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("revoke on an unknown pair", func(t *testing.T) {
		err := accessStore.Revoke(ctx, uuid.Must(uuid.NewV7()), userID, []string{"a"})
		require.ErrorIs(t, err, store.ErrAccessNotFound)
	})

	t.Run("delete removes the row", func(t *testing.T) {
		require.NoError(t, accessStore.Delete(ctx, projectID, userID))
		_, err := accessStore.Get(ctx, projectID, userID)
		require.ErrorIs(t, err, store.ErrAccessNotFound)
		require.ErrorIs(t, accessStore.Delete(ctx, projectID, userID), store.ErrAccessNotFound)
	})

	t.Run("list by project and by user", func(t *testing.T) {
		accessStore := NewAccessStore()
		otherProject := uuid.Must(uuid.NewV7())
		otherUser := uuid.Must(uuid.NewV7())

		for _, pair := range []struct{ p, u uuid.UUID }{
			{projectID, userID},
			{projectID, otherUser},
			{otherProject, userID},
		} {
			require.NoError(t, accessStore.Grant(ctx, &models.ProjectAccess{
				ProjectID: pair.p, UserID: pair.u, Permissions: []string{"a"},
			}))
		}

		byProject, err := accessStore.ListByProject(ctx, projectID, store.DefaultPage())
		require.NoError(t, err)
		require.Len(t, byProject, 2)

		byUser, err := accessStore.ListByUser(ctx, userID, store.DefaultPage())
		require.NoError(t, err)
		require.Len(t, byUser, 2)

		// mutating a listed grant must not leak into the store
		byUser[0].Permissions[0] = "mutated"
		ok, err := accessStore.HasPermission(ctx, projectID, userID, "a")
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestPaginate(t *testing.T) {
	var items []*int
	for i := 1; i <= 5; i++ {
		n := i
		items = append(items, &n)
	}

	values := func(page []*int) []int {
		var out []int
		for _, p := range page {
			out = append(out, *p)
		}
		return out
	}

	t.Run("default page", func(t *testing.T) {
		require.Equal(t, []int{1, 2, 3, 4, 5}, values(paginate(items, store.DefaultPage())))
	})

	t.Run("middle page", func(t *testing.T) {
		require.Equal(t, []int{3, 4}, values(paginate(items, store.Page{Number: 1, Size: 2})))
	})

	t.Run("past the end", func(t *testing.T) {
		require.Empty(t, paginate(items, store.Page{Number: 9, Size: 2}))
	})

	t.Run("zero size falls back to the default", func(t *testing.T) {
		require.Equal(t, []int{1, 2, 3, 4, 5}, values(paginate(items, store.Page{Number: 0, Size: 0})))
	})

	t.Run("entries are cloned", func(t *testing.T) {
		page := paginate(items, store.DefaultPage())
		*page[0] = 99
		require.Equal(t, 1, *items[0])
	})
}
