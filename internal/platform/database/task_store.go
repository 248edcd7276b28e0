package database

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const taskColumns = `id, title, description, status, due_date, created_at, updated_at`

// TaskStore implements store.TaskStore.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskStore creates a TaskStore. If logger is nil, a default logger is used.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*TaskStore)(nil)

// WithTx implements store.TaskStore.
func (s *TaskStore) WithTx(tx *sqlx.Tx) store.TaskStore {
	return &TaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	query := s.db.Rebind(`
		INSERT INTO tasks (title, description, status, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := s.db.QueryRowxContext(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.DueDate,
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	).Scan(&task.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create task", slog.String("error", err.Error()))
		return store.NewStoreError("task", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	var task domain.Task
	query := s.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &task, query, id); err != nil {
		return nil, mapNotFound(err, store.ErrTaskNotFound)
	}
	return &task, nil
}

// Update implements store.TaskStore.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	query := s.db.Rebind(`
		UPDATE tasks
		SET title = ?, description = ?, status = ?, due_date = ?, updated_at = ?
		WHERE id = ?`)

	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.DueDate,
		task.UpdatedAt.UTC(),
		task.ID,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update task",
			slog.Int64("task_id", task.ID),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "update", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete task",
			slog.Int64("task_id", id),
			slog.String("error", err.Error()))
		return store.NewStoreError("task", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// List implements store.TaskStore.
func (s *TaskStore) List(
	ctx context.Context,
	filter domain.TaskFilter,
	page domain.PageRequest,
) ([]domain.Task, int64, error) {
	page = page.Normalize()
	where, args := taskWhere(filter)

	var total int64
	countQuery := s.db.Rebind(`SELECT COUNT(*) FROM tasks` + where)
	if err := sqlx.GetContext(ctx, s.db, &total, countQuery, args...); err != nil {
		s.logger.ErrorContext(ctx, "failed to count tasks", slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("task", "list", "count failed", MapError(err))
	}

	tasks := []domain.Task{}
	listQuery := s.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	listArgs := append(args, page.PerPage, page.Offset())
	if err := sqlx.SelectContext(ctx, s.db, &tasks, listQuery, listArgs...); err != nil {
		s.logger.ErrorContext(ctx, "failed to list tasks", slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("task", "list", "select failed", MapError(err))
	}

	return tasks, total, nil
}

// taskWhere builds the WHERE clause for filter. Criteria are joined with AND.
func taskWhere(filter domain.TaskFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.DueBefore != nil {
		conds = append(conds, "due_date <= ?")
		args = append(args, *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		conds = append(conds, "due_date >= ?")
		args = append(args, *filter.DueAfter)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		conds = append(conds,
			`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if filter.Overdue {
		conds = append(conds, "due_date < ?", "status <> ?")
		args = append(args, filter.Today, domain.TaskStatusDone)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a search term into a case-insensitive substring pattern.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
