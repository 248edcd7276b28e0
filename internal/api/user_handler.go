package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// UserHandler handles user account requests other than authentication.
type UserHandler struct {
	users  UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	if users == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("user service cannot be nil for UserHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		users:  users,
		logger: logger.With(slog.String("component", "user_handler")),
	}
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.List(r.Context(), pageRequest(r))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	users := make([]UserResponse, 0, len(page.Items))
	for i := range page.Items {
		users = append(users, userToResponse(&page.Items[i]))
	}
	shared.RespondWithData(w, r, http.StatusOK, UserListResponse{
		Users:      users,
		Pagination: paginationOf(page),
	})
}

// Get handles GET /users/{userId}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId", service.ErrInvalidUserID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, userToResponse(user))
}

// Delete handles DELETE /users/{userId}. The user's notifications go with it.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId", service.ErrInvalidUserID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	snapshot, err := h.users.Delete(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	logger.FromContextOrDefault(r.Context(), h.logger).Info("user deleted", slog.Int64("user_id", id))
	shared.RespondWithData(w, r, http.StatusOK, deleted("user", snapshot))
}
