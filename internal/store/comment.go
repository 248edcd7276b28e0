package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// CommentStore defines the interface for comment persistence. Comments are
// addressed through their task; a comment under another task is reported
// as ErrCommentNotFound.
type CommentStore interface {
	Create(ctx context.Context, c *domain.Comment) error
	Get(ctx context.Context, taskID, id int64) (*domain.Comment, error)
	Update(ctx context.Context, c *domain.Comment) error
	Delete(ctx context.Context, taskID, id int64) error
	// List returns one page of the task's comments, newest first.
	List(ctx context.Context, taskID int64, page domain.PageRequest) ([]domain.Comment, int64, error)
	WithTx(tx *sqlx.Tx) CommentStore
}
