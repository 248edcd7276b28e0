package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// NotificationStore defines the interface for notification persistence.
// Every lookup is scoped to the owning user: a notification that belongs
// to someone else is reported as ErrNotificationNotFound.
type NotificationStore interface {
	// Create saves a new notification and sets its ID.
	// Fails with ErrInvalidEntity if the user does not exist.
	Create(ctx context.Context, n *domain.Notification) error

	// Get retrieves one notification owned by userID.
	Get(ctx context.Context, userID, id int64) (*domain.Notification, error)

	// List returns one page of the user's notifications, newest first,
	// plus the total count. With unreadOnly, read rows are excluded.
	List(ctx context.Context, userID int64, unreadOnly bool, page domain.PageRequest) ([]domain.Notification, int64, error)

	// CountUnread counts the user's notifications with no read_at.
	CountUnread(ctx context.Context, userID int64) (int64, error)

	// SetReadAt sets or clears read_at on one notification.
	SetReadAt(ctx context.Context, userID, id int64, readAt *time.Time) error

	// MarkAllRead sets read_at on every unread notification of the user and
	// returns how many rows changed.
	MarkAllRead(ctx context.Context, userID int64, readAt time.Time) (int64, error)

	// Delete removes one notification owned by userID.
	Delete(ctx context.Context, userID, id int64) error

	// WithTx returns a NotificationStore bound to tx.
	WithTx(tx *sqlx.Tx) NotificationStore
}
