package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// NotificationHandler handles requests under /users/{userId}/notifications.
type NotificationHandler struct {
	notifications NotificationService
	logger        *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications NotificationService, logger *slog.Logger) *NotificationHandler {
	if notifications == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("notification service cannot be nil for NotificationHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger.With(slog.String("component", "notification_handler")),
	}
}

func userAndNotificationIDs(r *http.Request) (userID, id int64, err error) {
	userID, err = pathID(r, "userId", service.ErrInvalidUserID)
	if err != nil {
		return 0, 0, err
	}
	id, err = pathID(r, "id", service.ErrInvalidNotificationID)
	return userID, id, err
}

// List handles GET /users/{userId}/notifications?unread_only=.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId", service.ErrInvalidUserID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	page, err := h.notifications.List(r.Context(), userID, queryBool(r, "unread_only"), pageRequest(r))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, NotificationListResponse{
		Notifications: page.Items,
		Pagination:    paginationOf(page),
	})
}

// UnreadCount handles GET /users/{userId}/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId", service.ErrInvalidUserID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	count, err := h.notifications.UnreadCount(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, UnreadCountResponse{UnreadCount: count})
}

// MarkRead handles PATCH /users/{userId}/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, id, err := userAndNotificationIDs(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	n, err := h.notifications.MarkRead(r.Context(), userID, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, NotificationStateResponse{
		Message:      "Notification marked as read.",
		Notification: n,
	})
}

// MarkUnread handles PATCH /users/{userId}/notifications/{id}/unread.
func (h *NotificationHandler) MarkUnread(w http.ResponseWriter, r *http.Request) {
	userID, id, err := userAndNotificationIDs(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	n, err := h.notifications.MarkUnread(r.Context(), userID, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, NotificationStateResponse{
		Message:      "Notification marked as unread.",
		Notification: n,
	})
}

// MarkAllRead handles PATCH /users/{userId}/notifications/mark-all-read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId", service.ErrInvalidUserID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	updated, err := h.notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, MarkAllReadResponse{
		Message:      "All notifications marked as read.",
		UpdatedCount: updated,
	})
}

// Delete handles DELETE /users/{userId}/notifications/{id}.
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, err := userAndNotificationIDs(r)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	snapshot, err := h.notifications.Delete(r.Context(), userID, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, deleted("notification", snapshot))
}
