package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/redact"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const notificationServiceName = "notification"

// NotificationService manages a user's notifications. Every operation first
// checks that the user exists; a notification owned by someone else is
// reported exactly like a missing one.
type NotificationService struct {
	db            *sqlx.DB
	users         store.UserStore
	notifications store.NotificationStore
	opts          options
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(
	db *sqlx.DB,
	users store.UserStore,
	notifications store.NotificationStore,
	opts ...Option,
) (*NotificationService, error) {
	if db == nil || users == nil || notifications == nil {
		return nil, &ServiceError{
			Service:   notificationServiceName,
			Operation: "create_service",
			Message:   "db, user store and notification store are required",
		}
	}
	return &NotificationService{
		db:            db,
		users:         users,
		notifications: notifications,
		opts:          buildOptions("notification_service", opts),
	}, nil
}

func (s *NotificationService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.opts.logger)
}

// List returns one page of the user's notifications, newest first.
func (s *NotificationService) List(
	ctx context.Context,
	userID int64,
	unreadOnly bool,
	page domain.PageRequest,
) (*domain.Page[domain.Notification], error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	items, total, err := s.notifications.List(ctx, userID, unreadOnly, page)
	if err != nil {
		s.log(ctx).Error("failed to list notifications", redact.Attr(err), slog.Int64("user_id", userID))
		return nil, NewServiceError(notificationServiceName, "list", "failed to list notifications", err)
	}
	return domain.NewPage(items, total, page), nil
}

// UnreadCount returns how many of the user's notifications are unread.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return 0, err
	}
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		s.log(ctx).Error("failed to count unread notifications", redact.Attr(err), slog.Int64("user_id", userID))
		return 0, NewServiceError(notificationServiceName, "unread_count", "failed to count notifications", err)
	}
	return count, nil
}

// MarkRead marks the notification read. An already read notification keeps
// its original read time.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id int64) (*domain.Notification, error) {
	return s.setRead(ctx, "mark_read", userID, id, true)
}

// MarkUnread clears the notification's read time.
func (s *NotificationService) MarkUnread(ctx context.Context, userID, id int64) (*domain.Notification, error) {
	return s.setRead(ctx, "mark_unread", userID, id, false)
}

func (s *NotificationService) setRead(
	ctx context.Context,
	operation string,
	userID, id int64,
	read bool,
) (*domain.Notification, error) {
	if err := validID(id, ErrInvalidNotificationID); err != nil {
		return nil, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	var result *domain.Notification
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		txStore := s.notifications.WithTx(tx)

		n, err := txStore.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		if n.IsRead() != read {
			if read {
				now := s.opts.utcNow()
				err = txStore.SetReadAt(ctx, userID, id, &now)
			} else {
				err = txStore.SetReadAt(ctx, userID, id, nil)
			}
			if err != nil {
				return err
			}
			if n, err = txStore.Get(ctx, userID, id); err != nil {
				return err
			}
		}
		result = n
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to change notification read state",
				redact.Attr(err),
				slog.Int64("user_id", userID),
				slog.Int64("notification_id", id))
		}
		return nil, NewServiceError(notificationServiceName, operation, "failed to update notification", err)
	}
	return result, nil
}

// MarkAllRead marks every unread notification of the user read and returns
// how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return 0, err
	}

	var updated int64
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		updated, err = s.notifications.WithTx(tx).MarkAllRead(ctx, userID, s.opts.utcNow())
		return err
	})
	if err != nil {
		s.log(ctx).Error("failed to mark all notifications read", redact.Attr(err), slog.Int64("user_id", userID))
		return 0, NewServiceError(notificationServiceName, "mark_all_read", "failed to update notifications", err)
	}

	s.log(ctx).Info("notifications marked read", slog.Int64("user_id", userID), slog.Int64("updated_count", updated))
	return updated, nil
}

// Delete removes the notification and returns what identified it.
func (s *NotificationService) Delete(ctx context.Context, userID, id int64) (domain.NotificationSnapshot, error) {
	if err := validID(id, ErrInvalidNotificationID); err != nil {
		return domain.NotificationSnapshot{}, err
	}
	if err := s.requireUser(ctx, userID); err != nil {
		return domain.NotificationSnapshot{}, err
	}

	var snapshot domain.NotificationSnapshot
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		txStore := s.notifications.WithTx(tx)

		n, err := txStore.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		snapshot = n.Snapshot()
		return txStore.Delete(ctx, userID, id)
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to delete notification",
				redact.Attr(err),
				slog.Int64("user_id", userID),
				slog.Int64("notification_id", id))
		}
		return domain.NotificationSnapshot{}, NewServiceError(
			notificationServiceName, "delete", "failed to delete notification", err)
	}
	return snapshot, nil
}

func (s *NotificationService) requireUser(ctx context.Context, userID int64) error {
	if err := validID(userID, ErrInvalidUserID); err != nil {
		return err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to look up notification owner", redact.Attr(err), slog.Int64("user_id", userID))
		}
		return NewServiceError(notificationServiceName, "lookup_user", "failed to look up user", err)
	}
	return nil
}
