package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/database"
	"github.com/phrazzld/taskboard-api/internal/platform/database/databasetest"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStore(t *testing.T) {
	db := databasetest.New(t)
	s := database.NewUserStore(db, nil)
	ctx := context.Background()

	alice := databasetest.CreateUser(t, db, "Alice", "alice@example.com")
	databasetest.CreateUser(t, db, "Bob", "bob@example.com")

	t.Run("get by id and email", func(t *testing.T) {
		got, err := s.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", got.Email)
		assert.NotEmpty(t, got.HashedPassword)

		got, err = s.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)

		_, err = s.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
		_, err = s.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		now := time.Now().UTC()
		err := s.Create(ctx, &domain.User{
			Name: "Other", Email: "alice@example.com", HashedPassword: "x",
			CreatedAt: now, UpdatedAt: now,
		})
		assert.ErrorIs(t, err, store.ErrEmailExists)
		assert.True(t, store.IsDuplicateError(err))
	})

	t.Run("list is ordered by id", func(t *testing.T) {
		users, total, err := s.List(ctx, domain.NewPageRequest(1, 1))
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, users, 1)
		assert.Equal(t, "Alice", users[0].Name)
	})

	t.Run("delete cascades to notifications", func(t *testing.T) {
		carol := databasetest.CreateUser(t, db, "Carol", "carol@example.com")
		notifications := database.NewNotificationStore(db, nil)
		now := time.Now().UTC()
		require.NoError(t, notifications.Create(ctx, &domain.Notification{
			UserID: carol.ID, Type: domain.NotificationTypeTaskUpdated,
			Data: domain.NotificationData{"task_id": 1}, CreatedAt: now, UpdatedAt: now,
		}))

		require.NoError(t, s.Delete(ctx, carol.ID))
		assert.ErrorIs(t, s.Delete(ctx, carol.ID), store.ErrUserNotFound)

		var remaining int
		require.NoError(t, db.GetContext(ctx, &remaining,
			db.Rebind(`SELECT COUNT(*) FROM notifications WHERE user_id = ?`), carol.ID))
		assert.Zero(t, remaining)
	})
}
