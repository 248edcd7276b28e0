package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// TaskHandler handles task HTTP requests.
type TaskHandler struct {
	tasks  TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks TaskService, logger *slog.Logger) *TaskHandler {
	if tasks == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("task service cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// List handles GET /tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	verr := &domain.ValidationError{}
	dueBefore := queryDate(r, "due_before", verr)
	dueAfter := queryDate(r, "due_after", verr)
	if verr.HasErrors() {
		HandleAPIError(w, r, verr)
		return
	}

	q := r.URL.Query()
	filter := domain.NewTaskFilter(q.Get("status"), dueBefore, dueAfter, q.Get("search"), queryBool(r, "overdue"), h.tasks.Today())

	page, err := h.tasks.List(r.Context(), filter, pageRequest(r))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, TaskListResponse{
		Tasks:      page.Items,
		Pagination: paginationOf(page),
	})
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateTaskInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("task created", slog.Int64("task_id", task.ID))
	shared.RespondWithData(w, r, http.StatusCreated, task)
}

// Get handles GET /tasks/{taskId}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "taskId", service.ErrInvalidTaskID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, task)
}

// Update handles PUT and PATCH /tasks/{taskId}. Both are partial updates.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "taskId", service.ErrInvalidTaskID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	var in domain.UpdateTaskInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		HandleAPIError(w, r, err)
		return
	}

	task, err := h.tasks.Update(r.Context(), id, in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, task)
}

// Delete handles DELETE /tasks/{taskId}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "taskId", service.ErrInvalidTaskID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	snapshot, err := h.tasks.Delete(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("task deleted", slog.Int64("task_id", id))
	shared.RespondWithData(w, r, http.StatusOK, deleted("task", snapshot))
}
