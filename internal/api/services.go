package api

import (
	"context"

	"github.com/phrazzld/taskboard-api/internal/domain"
)

// The interfaces below are the slices of the service layer each handler
// needs. *service.XService values satisfy them.

// TaskService manages tasks.
type TaskService interface {
	Today() domain.Date
	List(ctx context.Context, filter domain.TaskFilter, page domain.PageRequest) (*domain.Page[domain.Task], error)
	Get(ctx context.Context, id int64) (*domain.Task, error)
	Create(ctx context.Context, in domain.CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, id int64, in domain.UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, id int64) (domain.TaskSnapshot, error)
}

// CommentService manages comments nested under tasks.
type CommentService interface {
	List(ctx context.Context, taskID int64, page domain.PageRequest) (*domain.Page[domain.Comment], error)
	Get(ctx context.Context, taskID, id int64) (*domain.Comment, error)
	Create(ctx context.Context, taskID int64, authorID *int64, in domain.CommentInput) (*domain.Comment, error)
	Update(ctx context.Context, taskID, id int64, in domain.CommentInput) (*domain.Comment, error)
	Delete(ctx context.Context, taskID, id int64) (domain.CommentSnapshot, error)
}

// ProjectService manages projects.
type ProjectService interface {
	List(ctx context.Context, filter domain.ProjectFilter, page domain.PageRequest) (*domain.Page[domain.Project], error)
	Get(ctx context.Context, id int64) (*domain.Project, error)
	Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error)
	Update(ctx context.Context, id int64, in domain.ProjectInput) (*domain.Project, error)
	Delete(ctx context.Context, id int64) (*domain.Project, error)
}

// UserService manages accounts and credentials.
type UserService interface {
	Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, in domain.LoginInput) (*domain.User, error)
	List(ctx context.Context, page domain.PageRequest) (*domain.Page[domain.User], error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Delete(ctx context.Context, id int64) (domain.UserSnapshot, error)
}

// NotificationService reads and updates a user's notifications.
type NotificationService interface {
	List(ctx context.Context, userID int64, unreadOnly bool, page domain.PageRequest) (*domain.Page[domain.Notification], error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, userID, id int64) (*domain.Notification, error)
	MarkUnread(ctx context.Context, userID, id int64) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, userID, id int64) (domain.NotificationSnapshot, error)
}
