package database

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const commentColumns = `id, task_id, user_id, content, created_at, updated_at`

// CommentStore implements store.CommentStore.
type CommentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCommentStore creates a CommentStore. If logger is nil, a default logger is used.
func NewCommentStore(db store.DBTX, logger *slog.Logger) *CommentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentStore{
		db:     db,
		logger: logger.With(slog.String("component", "comment_store")),
	}
}

var _ store.CommentStore = (*CommentStore)(nil)

// WithTx implements store.CommentStore.
func (s *CommentStore) WithTx(tx *sqlx.Tx) store.CommentStore {
	return &CommentStore{db: tx, logger: s.logger}
}

// Create implements store.CommentStore.
func (s *CommentStore) Create(ctx context.Context, c *domain.Comment) error {
	query := s.db.Rebind(`
		INSERT INTO comments (task_id, user_id, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	err := s.db.QueryRowxContext(ctx, query,
		c.TaskID,
		c.UserID,
		c.Content,
		c.CreatedAt.UTC(),
		c.UpdatedAt.UTC(),
	).Scan(&c.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create comment",
			slog.Int64("task_id", c.TaskID),
			slog.String("error", err.Error()))
		return store.NewStoreError("comment", "create", "insert failed", MapError(err))
	}
	return nil
}

// Get implements store.CommentStore.
func (s *CommentStore) Get(ctx context.Context, taskID, id int64) (*domain.Comment, error) {
	var c domain.Comment
	query := s.db.Rebind(`SELECT ` + commentColumns + ` FROM comments WHERE id = ? AND task_id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &c, query, id, taskID); err != nil {
		return nil, mapNotFound(err, store.ErrCommentNotFound)
	}
	return &c, nil
}

// Update implements store.CommentStore. Only the content is mutable.
func (s *CommentStore) Update(ctx context.Context, c *domain.Comment) error {
	query := s.db.Rebind(`UPDATE comments SET content = ?, updated_at = ? WHERE id = ? AND task_id = ?`)
	result, err := s.db.ExecContext(ctx, query, c.Content, c.UpdatedAt.UTC(), c.ID, c.TaskID)
	if err != nil {
		return store.NewStoreError("comment", "update", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrCommentNotFound)
}

// Delete implements store.CommentStore.
func (s *CommentStore) Delete(ctx context.Context, taskID, id int64) error {
	query := s.db.Rebind(`DELETE FROM comments WHERE id = ? AND task_id = ?`)
	result, err := s.db.ExecContext(ctx, query, id, taskID)
	if err != nil {
		return store.NewStoreError("comment", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrCommentNotFound)
}

// List implements store.CommentStore.
func (s *CommentStore) List(ctx context.Context, taskID int64, page domain.PageRequest) ([]domain.Comment, int64, error) {
	page = page.Normalize()

	var total int64
	if err := sqlx.GetContext(ctx, s.db, &total,
		s.db.Rebind(`SELECT COUNT(*) FROM comments WHERE task_id = ?`), taskID); err != nil {
		return nil, 0, store.NewStoreError("comment", "list", "count failed", MapError(err))
	}

	comments := []domain.Comment{}
	query := s.db.Rebind(`SELECT ` + commentColumns + ` FROM comments WHERE task_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	if err := sqlx.SelectContext(ctx, s.db, &comments, query, taskID, page.PerPage, page.Offset()); err != nil {
		s.logger.ErrorContext(ctx, "failed to list comments",
			slog.Int64("task_id", taskID),
			slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("comment", "list", "select failed", MapError(err))
	}
	return comments, total, nil
}
