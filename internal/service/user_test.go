package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/souschef/backend/internal/apperrors"
	"github.com/pageza/souschef/backend/internal/models"
	"github.com/pageza/souschef/backend/internal/service"
	"github.com/pageza/souschef/backend/internal/testhelpers"
	"github.com/pageza/souschef/backend/internal/types"
)

func setupUserService(t *testing.T) (*service.UserService, *gorm.DB) {
	db := testhelpers.SetupTestDB(t)
	return service.NewUserService(db, zap.NewNop()), db
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	var n int64
	require.NoError(t, db.Unscoped().Model(&models.User{}).Count(&n).Error)
	return n
}

func TestEnsureUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the user on first sight", func(t *testing.T) {
		svc, db := setupUserService(t)
		identity := testhelpers.FakeIdentity()

		user, err := svc.EnsureUser(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, identity.ClerkID, user.ClerkID)
		assert.Equal(t, identity.Email, user.Email)
		assert.Equal(t, models.SkillBeginner, user.SkillLevel)
		assert.False(t, user.Onboarded)
		assert.EqualValues(t, 1, countUsers(t, db))
	})

	t.Run("is idempotent", func(t *testing.T) {
		svc, db := setupUserService(t)
		identity := testhelpers.FakeIdentity()

		first, err := svc.EnsureUser(ctx, identity)
		require.NoError(t, err)
		second, err := svc.EnsureUser(ctx, identity)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.EqualValues(t, 1, countUsers(t, db))
	})

	t.Run("matches email case-insensitively", func(t *testing.T) {
		svc, db := setupUserService(t)
		identity := types.Identity{ClerkID: "user_abc", Email: "Cook@Example.com"}

		first, err := svc.EnsureUser(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, "cook@example.com", first.Email)

		identity.Email = "cook@example.com"
		second, err := svc.EnsureUser(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.EqualValues(t, 1, countUsers(t, db))
	})

	t.Run("relinks an existing email to a new clerk id", func(t *testing.T) {
		svc, db := setupUserService(t)
		original, err := svc.EnsureUser(ctx, types.Identity{ClerkID: "user_old", Email: "same@example.com"})
		require.NoError(t, err)

		relinked, err := svc.EnsureUser(ctx, types.Identity{ClerkID: "user_new", Email: "same@example.com"})
		require.NoError(t, err)
		assert.Equal(t, original.ID, relinked.ID)
		assert.Equal(t, "user_new", relinked.ClerkID)
		assert.EqualValues(t, 1, countUsers(t, db))

		stored, err := svc.GetByClerkID(ctx, "user_new")
		require.NoError(t, err)
		assert.Equal(t, original.ID, stored.ID)
	})

	t.Run("restores a soft deleted user", func(t *testing.T) {
		svc, _ := setupUserService(t)
		identity := testhelpers.FakeIdentity()
		user, err := svc.EnsureUser(ctx, identity)
		require.NoError(t, err)
		require.NoError(t, svc.Delete(ctx, user.ID))

		_, err = svc.GetByID(ctx, user.ID)
		assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

		restored, err := svc.EnsureUser(ctx, identity)
		require.NoError(t, err)
		assert.Equal(t, user.ID, restored.ID)

		_, err = svc.GetByID(ctx, user.ID)
		assert.NoError(t, err)
	})

	t.Run("concurrent calls resolve to one row", func(t *testing.T) {
		svc, db := setupUserService(t)
		identity := testhelpers.FakeIdentity()

		const workers = 8
		ids := make(chan string, workers)
		errs := make(chan error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				user, err := svc.EnsureUser(ctx, identity)
				if err != nil {
					errs <- err
					return
				}
				ids <- user.ID.String()
			}()
		}
		wg.Wait()
		close(ids)
		close(errs)

		for err := range errs {
			t.Errorf("unexpected error: %v", err)
		}
		seen := map[string]bool{}
		for id := range ids {
			seen[id] = true
		}
		assert.Len(t, seen, 1)
		assert.EqualValues(t, 1, countUsers(t, db))
	})

	t.Run("requires clerk id and email", func(t *testing.T) {
		svc, _ := setupUserService(t)

		_, err := svc.EnsureUser(ctx, types.Identity{Email: "x@example.com"})
		assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed))

		_, err = svc.EnsureUser(ctx, types.Identity{ClerkID: "user_x"})
		assert.True(t, apperrors.Is(err, apperrors.CodeValidationFailed))
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupUserService(t)
	user, err := svc.EnsureUser(ctx, testhelpers.FakeIdentity())
	require.NoError(t, err)

	name := "  Chef Robin  "
	updated, err := svc.UpdateProfile(ctx, user.ID, &types.UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Chef Robin", updated.Name)
	assert.Equal(t, user.ImageURL, updated.ImageURL)

	stored, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chef Robin", stored.Name)
}

func TestUserService_HandleWebhook(t *testing.T) {
	ctx := context.Background()

	event := func(kind string) *types.ClerkWebhookEvent {
		return &types.ClerkWebhookEvent{
			Type: kind,
			Data: types.ClerkUserData{
				ID:                    "user_hook",
				FirstName:             "Sam",
				LastName:              "Rivera",
				ImageURL:              "https://img.example.com/sam.png",
				PrimaryEmailAddressID: "idn_2",
				EmailAddresses: []types.ClerkEmailAddress{
					{ID: "idn_1", EmailAddress: "old@example.com"},
					{ID: "idn_2", EmailAddress: "sam@example.com"},
				},
			},
		}
	}

	t.Run("created then updated", func(t *testing.T) {
		svc, db := setupUserService(t)

		require.NoError(t, svc.HandleWebhook(ctx, event(types.ClerkUserCreated)))
		user, err := svc.GetByClerkID(ctx, "user_hook")
		require.NoError(t, err)
		assert.Equal(t, "sam@example.com", user.Email)
		assert.Equal(t, "Sam Rivera", user.Name)

		updated := event(types.ClerkUserUpdated)
		updated.Data.FirstName = "Samantha"
		updated.Data.EmailAddresses[1].EmailAddress = "samantha@example.com"
		require.NoError(t, svc.HandleWebhook(ctx, updated))

		user, err = svc.GetByClerkID(ctx, "user_hook")
		require.NoError(t, err)
		assert.Equal(t, "Samantha Rivera", user.Name)
		assert.Equal(t, "samantha@example.com", user.Email)
		assert.EqualValues(t, 1, countUsers(t, db))
	})

	t.Run("deleted", func(t *testing.T) {
		svc, _ := setupUserService(t)
		require.NoError(t, svc.HandleWebhook(ctx, event(types.ClerkUserCreated)))
		require.NoError(t, svc.HandleWebhook(ctx, &types.ClerkWebhookEvent{
			Type: types.ClerkUserDeleted,
			Data: types.ClerkUserData{ID: "user_hook", Deleted: true},
		}))

		_, err := svc.GetByClerkID(ctx, "user_hook")
		assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	})

	t.Run("ignores unrelated events", func(t *testing.T) {
		svc, _ := setupUserService(t)
		assert.NoError(t, svc.HandleWebhook(ctx, &types.ClerkWebhookEvent{Type: "session.created"}))
	})
}
