package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/redact"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const commentServiceName = "comment"

// CommentService manages comments nested under a task. Every operation
// checks the task first, so a comment under the wrong task is not found.
type CommentService struct {
	db       *sqlx.DB
	comments store.CommentStore
	tasks    store.TaskStore
	opts     options
}

// NewCommentService creates a CommentService.
func NewCommentService(db *sqlx.DB, comments store.CommentStore, tasks store.TaskStore, opts ...Option) (*CommentService, error) {
	if db == nil || comments == nil || tasks == nil {
		return nil, &ServiceError{
			Service:   commentServiceName,
			Operation: "create_service",
			Message:   "db, comment store and task store are required",
		}
	}
	return &CommentService{
		db:       db,
		comments: comments,
		tasks:    tasks,
		opts:     buildOptions("comment_service", opts),
	}, nil
}

func (s *CommentService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.opts.logger)
}

// List returns one page of the task's comments, newest first.
func (s *CommentService) List(ctx context.Context, taskID int64, page domain.PageRequest) (*domain.Page[domain.Comment], error) {
	if err := s.requireTask(ctx, s.tasks, taskID); err != nil {
		return nil, err
	}
	page = page.Normalize()
	items, total, err := s.comments.List(ctx, taskID, page)
	if err != nil {
		s.log(ctx).Error("failed to list comments", redact.Attr(err), slog.Int64("task_id", taskID))
		return nil, NewServiceError(commentServiceName, "list", "failed to list comments", err)
	}
	return domain.NewPage(items, total, page), nil
}

// Get returns one comment of the task.
func (s *CommentService) Get(ctx context.Context, taskID, id int64) (*domain.Comment, error) {
	if err := validID(id, ErrInvalidCommentID); err != nil {
		return nil, err
	}
	if err := s.requireTask(ctx, s.tasks, taskID); err != nil {
		return nil, err
	}
	c, err := s.comments.Get(ctx, taskID, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to retrieve comment", redact.Attr(err), slog.Int64("comment_id", id))
		}
		return nil, NewServiceError(commentServiceName, "get", "failed to retrieve comment", err)
	}
	return c, nil
}

// Create adds a comment to the task. authorID may be nil for anonymous
// comments.
func (s *CommentService) Create(ctx context.Context, taskID int64, authorID *int64, in domain.CommentInput) (*domain.Comment, error) {
	if err := validID(taskID, ErrInvalidTaskID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := s.opts.utcNow()
	c := &domain.Comment{
		TaskID:    taskID,
		UserID:    authorID,
		Content:   strings.TrimSpace(in.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.requireTask(ctx, s.tasks.WithTx(tx), taskID); err != nil {
			return err
		}
		return s.comments.WithTx(tx).Create(ctx, c)
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to create comment", redact.Attr(err), slog.Int64("task_id", taskID))
		}
		return nil, NewServiceError(commentServiceName, "create", "failed to create comment", err)
	}
	return c, nil
}

// Update replaces the comment's content.
func (s *CommentService) Update(ctx context.Context, taskID, id int64, in domain.CommentInput) (*domain.Comment, error) {
	if err := validID(id, ErrInvalidCommentID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Comment
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.requireTask(ctx, s.tasks.WithTx(tx), taskID); err != nil {
			return err
		}
		txComments := s.comments.WithTx(tx)
		c, err := txComments.Get(ctx, taskID, id)
		if err != nil {
			return err
		}
		c.Content = strings.TrimSpace(in.Content)
		c.UpdatedAt = s.opts.utcNow()
		if err := txComments.Update(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to update comment", redact.Attr(err), slog.Int64("comment_id", id))
		}
		return nil, NewServiceError(commentServiceName, "update", "failed to update comment", err)
	}
	return updated, nil
}

// Delete removes the comment and returns its shortened snapshot.
func (s *CommentService) Delete(ctx context.Context, taskID, id int64) (domain.CommentSnapshot, error) {
	if err := validID(id, ErrInvalidCommentID); err != nil {
		return domain.CommentSnapshot{}, err
	}

	var snapshot domain.CommentSnapshot
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.requireTask(ctx, s.tasks.WithTx(tx), taskID); err != nil {
			return err
		}
		txComments := s.comments.WithTx(tx)
		c, err := txComments.Get(ctx, taskID, id)
		if err != nil {
			return err
		}
		snapshot = c.Snapshot()
		return txComments.Delete(ctx, taskID, id)
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to delete comment", redact.Attr(err), slog.Int64("comment_id", id))
		}
		return domain.CommentSnapshot{}, NewServiceError(commentServiceName, "delete", "failed to delete comment", err)
	}
	return snapshot, nil
}

func (s *CommentService) requireTask(ctx context.Context, tasks store.TaskStore, taskID int64) error {
	if err := validID(taskID, ErrInvalidTaskID); err != nil {
		return err
	}
	if _, err := tasks.GetByID(ctx, taskID); err != nil {
		return NewServiceError(commentServiceName, "lookup_task", "failed to look up task", err)
	}
	return nil
}
