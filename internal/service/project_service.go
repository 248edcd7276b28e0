package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/redact"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const projectServiceName = "project"

// ProjectService implements project CRUD.
type ProjectService struct {
	db       *sqlx.DB
	projects store.ProjectStore
	users    store.UserStore
	opts     options
}

// NewProjectService creates a ProjectService.
func NewProjectService(db *sqlx.DB, projects store.ProjectStore, users store.UserStore, opts ...Option) (*ProjectService, error) {
	if db == nil || projects == nil || users == nil {
		return nil, &ServiceError{
			Service:   projectServiceName,
			Operation: "create_service",
			Message:   "db, project store and user store are required",
		}
	}
	return &ProjectService{
		db:       db,
		projects: projects,
		users:    users,
		opts:     buildOptions("project_service", opts),
	}, nil
}

func (s *ProjectService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.opts.logger)
}

// List returns one page of projects, newest first. An unknown status in
// the filter is ignored.
func (s *ProjectService) List(
	ctx context.Context,
	filter domain.ProjectFilter,
	page domain.PageRequest,
) (*domain.Page[domain.Project], error) {
	if !filter.Status.Valid() {
		filter.Status = ""
	}
	page = page.Normalize()
	items, total, err := s.projects.List(ctx, filter, page)
	if err != nil {
		s.log(ctx).Error("failed to list projects", redact.Attr(err))
		return nil, NewServiceError(projectServiceName, "list", "failed to list projects", err)
	}
	return domain.NewPage(items, total, page), nil
}

// Get returns the project with the given id.
func (s *ProjectService) Get(ctx context.Context, id int64) (*domain.Project, error) {
	if err := validID(id, ErrInvalidProjectID); err != nil {
		return nil, err
	}
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to retrieve project", redact.Attr(err), slog.Int64("project_id", id))
		}
		return nil, NewServiceError(projectServiceName, "get", "failed to retrieve project", err)
	}
	return p, nil
}

// Create validates in and stores a new project owned by in.UserID.
func (s *ProjectService) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	if err := in.ValidateCreate(s.opts.today()); err != nil {
		return nil, err
	}

	p := domain.NewProject(in, s.opts.utcNow())
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.requireOwner(ctx, s.users.WithTx(tx), p.UserID); err != nil {
			return err
		}
		return s.projects.WithTx(tx).Create(ctx, p)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrValidation) {
			s.log(ctx).Error("failed to create project", redact.Attr(err))
		}
		return nil, NewServiceError(projectServiceName, "create", "failed to create project", err)
	}

	s.log(ctx).Info("project created", slog.Int64("project_id", p.ID), slog.Int64("user_id", p.UserID))
	return p, nil
}

// Update applies the provided fields to the project.
func (s *ProjectService) Update(ctx context.Context, id int64, in domain.ProjectInput) (*domain.Project, error) {
	if err := validID(id, ErrInvalidProjectID); err != nil {
		return nil, err
	}

	var updated *domain.Project
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		txProjects := s.projects.WithTx(tx)

		current, err := txProjects.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := in.ValidateUpdate(current); err != nil {
			return err
		}
		if in.UserID != nil {
			if err := s.requireOwner(ctx, s.users.WithTx(tx), *in.UserID); err != nil {
				return err
			}
		}

		in.Apply(current, s.opts.utcNow())
		if err := txProjects.Update(ctx, current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, domain.ErrValidation) {
			s.log(ctx).Error("failed to update project", redact.Attr(err), slog.Int64("project_id", id))
		}
		return nil, NewServiceError(projectServiceName, "update", "failed to update project", err)
	}
	return updated, nil
}

// Delete removes the project and returns its last state.
func (s *ProjectService) Delete(ctx context.Context, id int64) (*domain.Project, error) {
	if err := validID(id, ErrInvalidProjectID); err != nil {
		return nil, err
	}

	var deleted *domain.Project
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		txProjects := s.projects.WithTx(tx)

		p, err := txProjects.GetByID(ctx, id)
		if err != nil {
			return err
		}
		deleted = p
		return txProjects.Delete(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to delete project", redact.Attr(err), slog.Int64("project_id", id))
		}
		return nil, NewServiceError(projectServiceName, "delete", "failed to delete project", err)
	}
	return deleted, nil
}

// requireOwner reports a missing owner as a validation failure on user_id.
func (s *ProjectService) requireOwner(ctx context.Context, users store.UserStore, userID int64) error {
	if userID <= 0 {
		return domain.NewValidationError("user_id", "The selected user id is invalid.")
	}
	if _, err := users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.NewValidationError("user_id", "The selected user id is invalid.")
		}
		return err
	}
	return nil
}
