package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskboard-api/internal/api/middleware"
	"github.com/phrazzld/taskboard-api/internal/api/shared"
)

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Auth          *AuthHandler
	Tasks         *TaskHandler
	Comments      *CommentHandler
	Projects      *ProjectHandler
	Users         *UserHandler
	Notifications *NotificationHandler

	AuthMiddleware *middleware.AuthMiddleware
	// RateLimiter guards the public auth routes. Nil disables limiting.
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger
}

// NewRouter builds the HTTP routes: public auth endpoints under /api/auth,
// everything else under /api behind the auth middleware, and /health.
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.TraceMiddleware(h.Logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, CodeNotFound, "Route not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed.")
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.RateLimiter != nil {
				r.Use(h.RateLimiter.Limit)
			}
			r.Post("/auth/register", h.Auth.Register)
			r.Post("/auth/login", h.Auth.Login)
			r.Post("/auth/refresh", h.Auth.RefreshToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware.Authenticate)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.Tasks.List)
				r.Post("/", h.Tasks.Create)
				r.Route("/{taskId}", func(r chi.Router) {
					r.Get("/", h.Tasks.Get)
					r.Put("/", h.Tasks.Update)
					r.Patch("/", h.Tasks.Update)
					r.Delete("/", h.Tasks.Delete)

					r.Get("/comments", h.Comments.List)
					r.Post("/comments", h.Comments.Create)
					r.Get("/comments/{id}", h.Comments.Get)
					r.Put("/comments/{id}", h.Comments.Update)
					r.Delete("/comments/{id}", h.Comments.Delete)
				})
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.Projects.List)
				r.Post("/", h.Projects.Create)
				r.Get("/{id}", h.Projects.Get)
				r.Put("/{id}", h.Projects.Update)
				r.Delete("/{id}", h.Projects.Delete)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.Users.List)
				r.Route("/{userId}", func(r chi.Router) {
					r.Get("/", h.Users.Get)
					r.Delete("/", h.Users.Delete)

					r.Get("/notifications", h.Notifications.List)
					r.Get("/notifications/unread-count", h.Notifications.UnreadCount)
					r.Patch("/notifications/mark-all-read", h.Notifications.MarkAllRead)
					r.Patch("/notifications/{id}/read", h.Notifications.MarkRead)
					r.Patch("/notifications/{id}/unread", h.Notifications.MarkUnread)
					r.Delete("/notifications/{id}", h.Notifications.Delete)
				})
			})
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithData(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
