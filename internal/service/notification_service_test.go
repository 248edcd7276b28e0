package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/database"
	"github.com/phrazzld/taskboard-api/internal/platform/database/databasetest"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotificationService(t *testing.T) (*service.NotificationService, *sqlx.DB) {
	t.Helper()
	db := openDB(t)
	svc, err := service.NewNotificationService(db, newUserStore(db), database.NewNotificationStore(db, nil), testOptions()...)
	require.NoError(t, err)
	return svc, db
}

func seedNotification(t *testing.T, db *sqlx.DB, userID int64, read bool) *domain.Notification {
	t.Helper()
	now := time.Now().UTC()
	n := &domain.Notification{
		UserID:    userID,
		Type:      domain.NotificationTypeTaskUpdated,
		Data:      domain.NotificationData{"task_id": float64(1)},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if read {
		n.ReadAt = &now
	}
	require.NoError(t, database.NewNotificationStore(db, nil).Create(context.Background(), n))
	return n
}

func TestNotificationService_ListAndCounts(t *testing.T) {
	ctx := context.Background()
	svc, db := newNotificationService(t)
	user := databasetest.CreateUser(t, db, "Ada", "ada@example.com")

	for i := 0; i < 5; i++ {
		seedNotification(t, db, user.ID, false)
	}
	for i := 0; i < 3; i++ {
		seedNotification(t, db, user.ID, true)
	}

	all, err := svc.List(ctx, user.ID, false, domain.NewPageRequest(1, 15))
	require.NoError(t, err)
	assert.Equal(t, int64(8), all.Total)

	unread, err := svc.List(ctx, user.ID, true, domain.NewPageRequest(1, 15))
	require.NoError(t, err)
	assert.Equal(t, int64(5), unread.Total)
	for _, n := range unread.Items {
		assert.False(t, n.IsRead())
	}

	count, err := svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	updated, err := svc.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), updated)

	count, err = svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationService_UnknownUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newNotificationService(t)

	_, err := svc.List(ctx, 999, false, domain.NewPageRequest(1, 15))
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = svc.UnreadCount(ctx, 999)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = svc.MarkAllRead(ctx, 999)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = svc.List(ctx, 0, false, domain.NewPageRequest(1, 15))
	assert.ErrorIs(t, err, service.ErrInvalidUserID)
}

func TestNotificationService_ReadState(t *testing.T) {
	ctx := context.Background()
	svc, db := newNotificationService(t)
	user := databasetest.CreateUser(t, db, "Ada", "ada@example.com")
	n := seedNotification(t, db, user.ID, false)

	read, err := svc.MarkRead(ctx, user.ID, n.ID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)
	assert.True(t, read.ReadAt.Equal(fixedNow))

	again, err := svc.MarkRead(ctx, user.ID, n.ID)
	require.NoError(t, err)
	assert.True(t, again.ReadAt.Equal(*read.ReadAt), "read time is kept")

	unread, err := svc.MarkUnread(ctx, user.ID, n.ID)
	require.NoError(t, err)
	assert.Nil(t, unread.ReadAt)

	_, err = svc.MarkRead(ctx, user.ID, 0)
	assert.ErrorIs(t, err, service.ErrInvalidNotificationID)
}

func TestNotificationService_OtherUsersNotification(t *testing.T) {
	ctx := context.Background()
	svc, db := newNotificationService(t)
	owner := databasetest.CreateUser(t, db, "Ada", "ada@example.com")
	other := databasetest.CreateUser(t, db, "Bob", "bob@example.com")
	n := seedNotification(t, db, owner.ID, false)

	_, err := svc.MarkRead(ctx, other.ID, n.ID)
	assert.ErrorIs(t, err, store.ErrNotificationNotFound)

	_, err = svc.Delete(ctx, other.ID, n.ID)
	assert.ErrorIs(t, err, store.ErrNotificationNotFound)

	snapshot, err := svc.Delete(ctx, owner.ID, n.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NotificationSnapshot{ID: n.ID, Type: domain.NotificationTypeTaskUpdated, UserID: owner.ID}, snapshot)

	_, err = svc.Delete(ctx, owner.ID, n.ID)
	assert.ErrorIs(t, err, store.ErrNotificationNotFound)
}
