package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task and sets its ID.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Task, error)

	// Update writes every mutable column of task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task and its comments.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id int64) error

	// List returns one page of tasks matching filter, newest first,
	// plus the total number of matches.
	List(ctx context.Context, filter domain.TaskFilter, page domain.PageRequest) ([]domain.Task, int64, error)

	// WithTx returns a TaskStore bound to tx.
	WithTx(tx *sqlx.Tx) TaskStore
}
