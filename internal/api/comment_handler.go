package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// CommentHandler handles comment requests nested under /tasks/{taskId}.
type CommentHandler struct {
	comments CommentService
	logger   *slog.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(comments CommentService, logger *slog.Logger) *CommentHandler {
	if comments == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("comment service cannot be nil for CommentHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentHandler{
		comments: comments,
		logger:   logger.With(slog.String("component", "comment_handler")),
	}
}

// ids parses the task ID and, when withComment is set, the comment ID.
func (h *CommentHandler) ids(r *http.Request, withComment bool) (taskID, commentID int64, err error) {
	taskID, err = pathID(r, "taskId", service.ErrInvalidTaskID)
	if err != nil || !withComment {
		return taskID, 0, err
	}
	commentID, err = pathID(r, "id", service.ErrInvalidCommentID)
	return taskID, commentID, err
}

// List handles GET /tasks/{taskId}/comments.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	taskID, _, err := h.ids(r, false)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	page, err := h.comments.List(r.Context(), taskID, pageRequest(r))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, CommentListResponse{
		Comments:   page.Items,
		Pagination: paginationOf(page),
	})
}

// Create handles POST /tasks/{taskId}/comments. The author is the
// authenticated user.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	taskID, _, err := h.ids(r, false)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	var in domain.CommentInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), taskID, authUserID(r), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusCreated, comment)
}

// Get handles GET /tasks/{taskId}/comments/{id}.
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	taskID, id, err := h.ids(r, true)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	comment, err := h.comments.Get(r.Context(), taskID, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, comment)
}

// Update handles PUT /tasks/{taskId}/comments/{id}.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	taskID, id, err := h.ids(r, true)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	var in domain.CommentInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	comment, err := h.comments.Update(r.Context(), taskID, id, in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, comment)
}

// Delete handles DELETE /tasks/{taskId}/comments/{id}.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID, id, err := h.ids(r, true)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	snapshot, err := h.comments.Delete(r.Context(), taskID, id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, deleted("comment", snapshot))
}
