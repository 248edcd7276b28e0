package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
)

// ProjectStore defines the interface for project persistence.
type ProjectStore interface {
	Create(ctx context.Context, p *domain.Project) error
	// GetByID returns ErrProjectNotFound if the project does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id int64) error
	// List returns one page of projects, newest first, plus the total count.
	List(ctx context.Context, filter domain.ProjectFilter, page domain.PageRequest) ([]domain.Project, int64, error)
	WithTx(tx *sqlx.Tx) ProjectStore
}
