package api

import (
	"time"

	"github.com/phrazzld/taskboard-api/internal/domain"
)

// Pagination describes the position of a page within a listing.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

func paginationOf[T any](p *domain.Page[T]) Pagination {
	return Pagination{
		CurrentPage: p.CurrentPage,
		TotalPages:  p.TotalPages(),
		PerPage:     p.PerPage,
		Total:       p.Total,
		From:        p.From(),
		To:          p.To(),
	}
}

// TaskListResponse is one page of tasks.
type TaskListResponse struct {
	Tasks      []domain.Task `json:"tasks"`
	Pagination Pagination    `json:"pagination"`
}

// CommentListResponse is one page of a task's comments.
type CommentListResponse struct {
	Comments   []domain.Comment `json:"comments"`
	Pagination Pagination       `json:"pagination"`
}

// ProjectListResponse is one page of projects.
type ProjectListResponse struct {
	Projects   []domain.Project `json:"projects"`
	Pagination Pagination       `json:"pagination"`
}

// UserListResponse is one page of users.
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination Pagination     `json:"pagination"`
}

// NotificationListResponse is one page of a user's notifications.
type NotificationListResponse struct {
	Notifications []domain.Notification `json:"notifications"`
	Pagination    Pagination            `json:"pagination"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	User         *UserResponse `json:"user,omitempty"`
	AccessToken  string        `json:"token"`
	RefreshToken string        `json:"refresh_token"`
	// ExpiresAt is the RFC 3339 expiry of the access token.
	ExpiresAt string `json:"expires_at"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// DeletedResponse confirms a deletion and carries the snapshot under a
// resource-specific key.
type DeletedResponse map[string]any

func deleted(resource string, snapshot any) DeletedResponse {
	return DeletedResponse{
		"message":            capitalize(resource) + " deleted successfully.",
		"deleted_" + resource: snapshot,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// NotificationStateResponse is returned when one notification's read state
// changes.
type NotificationStateResponse struct {
	Message      string               `json:"message"`
	Notification *domain.Notification `json:"notification"`
}

// MarkAllReadResponse reports how many notifications were marked read.
type MarkAllReadResponse struct {
	Message      string `json:"message"`
	UpdatedCount int64  `json:"updated_count"`
}

// UnreadCountResponse carries a user's unread notification count.
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}
