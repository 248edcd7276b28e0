package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskboard-api/internal/api/shared"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/service"
)

// ProjectHandler handles project HTTP requests.
type ProjectHandler struct {
	projects ProjectService
	logger   *slog.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects ProjectService, logger *slog.Logger) *ProjectHandler {
	if projects == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("project service cannot be nil for ProjectHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectHandler{
		projects: projects,
		logger:   logger.With(slog.String("component", "project_handler")),
	}
}

// List handles GET /projects?user_id=&status=.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ProjectFilter{
		UserID: queryInt64(r, "user_id"),
		Status: domain.ProjectStatus(r.URL.Query().Get("status")),
	}
	page, err := h.projects.List(r.Context(), filter, pageRequest(r))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, ProjectListResponse{
		Projects:   page.Items,
		Pagination: paginationOf(page),
	})
}

// Create handles POST /projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.ProjectInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	project, err := h.projects.Create(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusCreated, project)
}

// Get handles GET /projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", service.ErrInvalidProjectID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	project, err := h.projects.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, project)
}

// Update handles PUT /projects/{id}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", service.ErrInvalidProjectID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	var in domain.ProjectInput
	if err := shared.DecodeJSON(r, &in); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	project, err := h.projects.Update(r.Context(), id, in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, project)
}

// Delete handles DELETE /projects/{id}.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", service.ErrInvalidProjectID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	project, err := h.projects.Delete(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, deleted("project", project))
}
