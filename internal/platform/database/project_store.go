package database

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const projectColumns = `id, title, description, status, start_date, end_date, user_id, created_at, updated_at`

// ProjectStore implements store.ProjectStore.
type ProjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewProjectStore creates a ProjectStore. If logger is nil, a default logger is used.
func NewProjectStore(db store.DBTX, logger *slog.Logger) *ProjectStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "project_store")),
	}
}

var _ store.ProjectStore = (*ProjectStore)(nil)

// WithTx implements store.ProjectStore.
func (s *ProjectStore) WithTx(tx *sqlx.Tx) store.ProjectStore {
	return &ProjectStore{db: tx, logger: s.logger}
}

// Create implements store.ProjectStore. An unknown user_id is reported as
// store.ErrInvalidEntity.
func (s *ProjectStore) Create(ctx context.Context, p *domain.Project) error {
	query := s.db.Rebind(`
		INSERT INTO projects (title, description, status, start_date, end_date, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := s.db.QueryRowxContext(ctx, query,
		p.Title,
		p.Description,
		p.Status,
		p.StartDate,
		p.EndDate,
		p.UserID,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	).Scan(&p.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create project", slog.String("error", err.Error()))
		return store.NewStoreError("project", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID implements store.ProjectStore.
func (s *ProjectStore) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	var p domain.Project
	query := s.db.Rebind(`SELECT ` + projectColumns + ` FROM projects WHERE id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &p, query, id); err != nil {
		return nil, mapNotFound(err, store.ErrProjectNotFound)
	}
	return &p, nil
}

// Update implements store.ProjectStore.
func (s *ProjectStore) Update(ctx context.Context, p *domain.Project) error {
	query := s.db.Rebind(`
		UPDATE projects
		SET title = ?, description = ?, status = ?, start_date = ?, end_date = ?, user_id = ?, updated_at = ?
		WHERE id = ?`)

	result, err := s.db.ExecContext(ctx, query,
		p.Title,
		p.Description,
		p.Status,
		p.StartDate,
		p.EndDate,
		p.UserID,
		p.UpdatedAt.UTC(),
		p.ID,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update project",
			slog.Int64("project_id", p.ID),
			slog.String("error", err.Error()))
		return store.NewStoreError("project", "update", "update failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrProjectNotFound)
}

// Delete implements store.ProjectStore.
func (s *ProjectStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return store.NewStoreError("project", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrProjectNotFound)
}

// List implements store.ProjectStore.
func (s *ProjectStore) List(
	ctx context.Context,
	filter domain.ProjectFilter,
	page domain.PageRequest,
) ([]domain.Project, int64, error) {
	page = page.Normalize()

	var conds []string
	var args []any
	if filter.UserID > 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := sqlx.GetContext(ctx, s.db, &total, s.db.Rebind(`SELECT COUNT(*) FROM projects`+where), args...); err != nil {
		return nil, 0, store.NewStoreError("project", "list", "count failed", MapError(err))
	}

	projects := []domain.Project{}
	query := s.db.Rebind(`SELECT ` + projectColumns + ` FROM projects` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`)
	if err := sqlx.SelectContext(ctx, s.db, &projects, query, append(args, page.PerPage, page.Offset())...); err != nil {
		s.logger.ErrorContext(ctx, "failed to list projects", slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("project", "list", "select failed", MapError(err))
	}
	return projects, total, nil
}
