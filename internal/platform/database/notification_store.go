package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const notificationColumns = `id, user_id, type, data, read_at, created_at, updated_at`

// NotificationStore implements store.NotificationStore.
type NotificationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewNotificationStore creates a NotificationStore. If logger is nil, a
// default logger is used.
func NewNotificationStore(db store.DBTX, logger *slog.Logger) *NotificationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationStore{
		db:     db,
		logger: logger.With(slog.String("component", "notification_store")),
	}
}

var _ store.NotificationStore = (*NotificationStore)(nil)

// WithTx implements store.NotificationStore.
func (s *NotificationStore) WithTx(tx *sqlx.Tx) store.NotificationStore {
	return &NotificationStore{db: tx, logger: s.logger}
}

// Create implements store.NotificationStore.
func (s *NotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	query := s.db.Rebind(`
		INSERT INTO notifications (user_id, type, data, read_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := s.db.QueryRowxContext(ctx, query,
		n.UserID,
		n.Type,
		n.Data,
		utcPtr(n.ReadAt),
		n.CreatedAt.UTC(),
		n.UpdatedAt.UTC(),
	).Scan(&n.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create notification",
			slog.Int64("user_id", n.UserID),
			slog.String("error", err.Error()))
		return store.NewStoreError("notification", "create", "insert failed", MapError(err))
	}
	return nil
}

// Get implements store.NotificationStore.
func (s *NotificationStore) Get(ctx context.Context, userID, id int64) (*domain.Notification, error) {
	var n domain.Notification
	query := s.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications WHERE id = ? AND user_id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &n, query, id, userID); err != nil {
		return nil, mapNotFound(err, store.ErrNotificationNotFound)
	}
	return &n, nil
}

// List implements store.NotificationStore.
func (s *NotificationStore) List(
	ctx context.Context,
	userID int64,
	unreadOnly bool,
	page domain.PageRequest,
) ([]domain.Notification, int64, error) {
	page = page.Normalize()
	where := ` WHERE user_id = ?`
	if unreadOnly {
		where += ` AND read_at IS NULL`
	}

	var total int64
	if err := sqlx.GetContext(ctx, s.db, &total,
		s.db.Rebind(`SELECT COUNT(*) FROM notifications`+where), userID); err != nil {
		return nil, 0, store.NewStoreError("notification", "list", "count failed", MapError(err))
	}

	items := []domain.Notification{}
	query := s.db.Rebind(`SELECT ` + notificationColumns + ` FROM notifications` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	if err := sqlx.SelectContext(ctx, s.db, &items, query, userID, page.PerPage, page.Offset()); err != nil {
		s.logger.ErrorContext(ctx, "failed to list notifications",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("notification", "list", "select failed", MapError(err))
	}
	return items, total, nil
}

// CountUnread implements store.NotificationStore.
func (s *NotificationStore) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	query := s.db.Rebind(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`)
	if err := sqlx.GetContext(ctx, s.db, &count, query, userID); err != nil {
		return 0, store.NewStoreError("notification", "count_unread", "count failed", MapError(err))
	}
	return count, nil
}

// SetReadAt implements store.NotificationStore.
func (s *NotificationStore) SetReadAt(ctx context.Context, userID, id int64, readAt *time.Time) error {
	query := s.db.Rebind(`UPDATE notifications SET read_at = ?, updated_at = ? WHERE id = ? AND user_id = ?`)
	result, err := s.db.ExecContext(ctx, query, utcPtr(readAt), time.Now().UTC(), id, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update notification read state",
			slog.Int64("notification_id", id),
			slog.String("error", err.Error()))
		return store.NewStoreError("notification", "set_read_at", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}

// MarkAllRead implements store.NotificationStore.
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID int64, readAt time.Time) (int64, error) {
	query := s.db.Rebind(`
		UPDATE notifications SET read_at = ?, updated_at = ?
		WHERE user_id = ? AND read_at IS NULL`)
	at := readAt.UTC()
	result, err := s.db.ExecContext(ctx, query, at, at, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to mark notifications read",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()))
		return 0, store.NewStoreError("notification", "mark_all_read", "update failed", MapError(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, store.NewStoreError("notification", "mark_all_read", "rows affected unavailable", err)
	}
	return n, nil
}

// Delete implements store.NotificationStore.
func (s *NotificationStore) Delete(ctx context.Context, userID, id int64) error {
	query := s.db.Rebind(`DELETE FROM notifications WHERE id = ? AND user_id = ?`)
	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return store.NewStoreError("notification", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrNotificationNotFound)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
