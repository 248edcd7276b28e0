package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/cache"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/redact"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// Task cache layout. Every entry is tagged TaskCacheTag and the whole tag
// is dropped on any write.
const (
	TaskCacheTag       = "tasks"
	TaskCacheTTL       = 60 * time.Minute
	taskListKeyPrefix  = "tasks:list:"
	taskItemKeyPrefix  = "tasks:item:"
	taskServiceName    = "task"
	taskServiceLogName = "task_service"
)

// TaskService implements the task use cases.
type TaskService struct {
	db      *sqlx.DB
	tasks   store.TaskStore
	cache   *cache.Cache
	emitter events.EventEmitter
	opts    options
}

// NewTaskService creates a TaskService. The cache may be nil, in which case
// every read goes to the store.
func NewTaskService(
	db *sqlx.DB,
	tasks store.TaskStore,
	taskCache *cache.Cache,
	emitter events.EventEmitter,
	opts ...Option,
) (*TaskService, error) {
	if db == nil {
		return nil, &ServiceError{Service: taskServiceName, Operation: "create_service", Message: "db cannot be nil"}
	}
	if tasks == nil {
		return nil, &ServiceError{Service: taskServiceName, Operation: "create_service", Message: "task store cannot be nil"}
	}
	if emitter == nil {
		return nil, &ServiceError{Service: taskServiceName, Operation: "create_service", Message: "event emitter cannot be nil"}
	}
	return &TaskService{
		db:      db,
		tasks:   tasks,
		cache:   taskCache,
		emitter: emitter,
		opts:    buildOptions(taskServiceLogName, opts),
	}, nil
}

func (s *TaskService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.opts.logger)
}

// Today returns the service's current date, used to resolve the overdue
// filter.
func (s *TaskService) Today() domain.Date {
	return s.opts.today()
}

// List returns one page of tasks matching filter, newest first.
func (s *TaskService) List(
	ctx context.Context,
	filter domain.TaskFilter,
	page domain.PageRequest,
) (*domain.Page[domain.Task], error) {
	page = page.Normalize()
	key := taskListKey(filter, page)

	result, err := cache.Remember(ctx, s.cache, key, TaskCacheTTL,
		func(ctx context.Context) (*domain.Page[domain.Task], error) {
			items, total, err := s.tasks.List(ctx, filter, page)
			if err != nil {
				return nil, err
			}
			return domain.NewPage(items, total, page), nil
		})
	if err != nil {
		s.log(ctx).Error("failed to list tasks", redact.Attr(err))
		return nil, NewServiceError(taskServiceName, "list", "failed to list tasks", err)
	}
	return result, nil
}

// Get returns the task with the given id.
func (s *TaskService) Get(ctx context.Context, id int64) (*domain.Task, error) {
	if err := validID(id, ErrInvalidTaskID); err != nil {
		return nil, err
	}

	task, err := cache.Remember(ctx, s.cache, taskItemKey(id), TaskCacheTTL,
		func(ctx context.Context) (*domain.Task, error) {
			return s.tasks.GetByID(ctx, id)
		})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to retrieve task", redact.Attr(err), slog.Int64("task_id", id))
		}
		return nil, NewServiceError(taskServiceName, "get", "failed to retrieve task", err)
	}
	return task, nil
}

// Create validates in and stores a new task.
func (s *TaskService) Create(ctx context.Context, in domain.CreateTaskInput) (*domain.Task, error) {
	if err := in.Validate(s.opts.today()); err != nil {
		return nil, err
	}

	task := domain.NewTask(in, s.opts.utcNow())
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.tasks.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		s.log(ctx).Error("failed to create task", redact.Attr(err))
		return nil, NewServiceError(taskServiceName, "create", "failed to create task", err)
	}

	s.invalidate(ctx)
	s.log(ctx).Info("task created", slog.Int64("task_id", task.ID), slog.String("status", string(task.Status)))
	return task, nil
}

// Update applies a partial update. When at least one field actually changed
// a single task.updated event is emitted after commit; a failed emission is
// logged and does not fail the update.
func (s *TaskService) Update(ctx context.Context, id int64, in domain.UpdateTaskInput) (*domain.Task, error) {
	if err := validID(id, ErrInvalidTaskID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.opts.utcNow()
	var (
		task    *domain.Task
		changed []string
	)
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		current, err := txTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}

		changed = in.Apply(current, now)
		if len(changed) > 0 {
			if err := txTasks.Update(ctx, current); err != nil {
				return err
			}
		}
		task = current
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to update task", redact.Attr(err), slog.Int64("task_id", id))
		}
		return nil, NewServiceError(taskServiceName, "update", "failed to update task", err)
	}

	if len(changed) == 0 {
		s.log(ctx).Debug("task update changed nothing", slog.Int64("task_id", id))
		return task, nil
	}

	s.invalidate(ctx)
	s.emitUpdated(ctx, task, changed, now)
	s.log(ctx).Info("task updated",
		slog.Int64("task_id", task.ID),
		slog.Any("changed_fields", changed))
	return task, nil
}

// Delete removes the task and returns what it looked like.
func (s *TaskService) Delete(ctx context.Context, id int64) (domain.TaskSnapshot, error) {
	if err := validID(id, ErrInvalidTaskID); err != nil {
		return domain.TaskSnapshot{}, err
	}

	var snapshot domain.TaskSnapshot
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		txTasks := s.tasks.WithTx(tx)

		task, err := txTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		snapshot = task.Snapshot()
		return txTasks.Delete(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to delete task", redact.Attr(err), slog.Int64("task_id", id))
		}
		return domain.TaskSnapshot{}, NewServiceError(taskServiceName, "delete", "failed to delete task", err)
	}

	s.invalidate(ctx)
	s.log(ctx).Info("task deleted", slog.Int64("task_id", id))
	return snapshot, nil
}

func (s *TaskService) emitUpdated(ctx context.Context, task *domain.Task, changed []string, at time.Time) {
	event, err := events.NewTaskUpdatedEvent(task, changed, at)
	if err != nil {
		s.log(ctx).Error("failed to build task updated event", redact.Attr(err), slog.Int64("task_id", task.ID))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.log(ctx).Error("failed to emit task updated event",
			redact.Attr(err),
			slog.Int64("task_id", task.ID),
			slog.String("event_id", event.ID.String()))
	}
}

// invalidate drops cached task reads. The write already committed, so a
// cache failure is only logged.
func (s *TaskService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log(ctx).Warn("failed to invalidate task cache", redact.Attr(err))
	}
}

func taskListKey(filter domain.TaskFilter, page domain.PageRequest) string {
	params := filter.Params()
	params["per_page"] = strconv.Itoa(page.PerPage)
	params["page"] = strconv.Itoa(page.Page)
	return cache.HashKey(taskListKeyPrefix, params)
}

func taskItemKey(id int64) string {
	return fmt.Sprintf("%s%d", taskItemKeyPrefix, id)
}
