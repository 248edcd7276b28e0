package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/redact"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const userServiceName = "user"

// UserService handles registration, credential checks and account
// administration.
type UserService struct {
	db     *sqlx.DB
	users  store.UserStore
	hasher auth.PasswordHasher
	opts   options
}

// NewUserService creates a UserService.
func NewUserService(db *sqlx.DB, users store.UserStore, hasher auth.PasswordHasher, opts ...Option) (*UserService, error) {
	if db == nil || users == nil || hasher == nil {
		return nil, &ServiceError{
			Service:   userServiceName,
			Operation: "create_service",
			Message:   "db, user store and password hasher are required",
		}
	}
	return &UserService{
		db:     db,
		users:  users,
		hasher: hasher,
		opts:   buildOptions("user_service", opts),
	}, nil
}

func (s *UserService) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.opts.logger)
}

// Register creates an account. A taken email is reported as a validation
// failure on the email field.
func (s *UserService) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, NewServiceError(userServiceName, "register", "failed to hash password", err)
	}

	now := s.opts.utcNow()
	user := &domain.User{
		Name:           in.Name,
		Email:          in.Email,
		HashedPassword: hashed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		return s.users.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.log(ctx).Debug("registration with existing email")
			return nil, domain.NewValidationError("email", "The email has already been taken.")
		}
		s.log(ctx).Error("failed to register user", redact.Attr(err))
		return nil, NewServiceError(userServiceName, "register", "failed to create user", err)
	}

	s.log(ctx).Info("user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

// Authenticate returns the user matching the credentials, or
// domain.ErrInvalidCredentials. Unknown emails and wrong passwords are not
// distinguished.
func (s *UserService) Authenticate(ctx context.Context, in domain.LoginInput) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	email := domain.RegisterInput{Email: in.Email}.Normalize().Email
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		s.log(ctx).Error("failed to look up user for login", redact.Attr(err))
		return nil, NewServiceError(userServiceName, "authenticate", "failed to look up user", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, in.Password); err != nil {
		s.log(ctx).Debug("password mismatch", slog.Int64("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// List returns one page of users ordered by id.
func (s *UserService) List(ctx context.Context, page domain.PageRequest) (*domain.Page[domain.User], error) {
	page = page.Normalize()
	items, total, err := s.users.List(ctx, page)
	if err != nil {
		s.log(ctx).Error("failed to list users", redact.Attr(err))
		return nil, NewServiceError(userServiceName, "list", "failed to list users", err)
	}
	return domain.NewPage(items, total, page), nil
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	if err := validID(id, ErrInvalidUserID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to retrieve user", redact.Attr(err), slog.Int64("user_id", id))
		}
		return nil, NewServiceError(userServiceName, "get", "failed to retrieve user", err)
	}
	return user, nil
}

// Delete removes the user. Their notifications and projects go with them;
// their comments stay with no author.
func (s *UserService) Delete(ctx context.Context, id int64) (domain.UserSnapshot, error) {
	if err := validID(id, ErrInvalidUserID); err != nil {
		return domain.UserSnapshot{}, err
	}

	var snapshot domain.UserSnapshot
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		txUsers := s.users.WithTx(tx)

		user, err := txUsers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		snapshot = user.Snapshot()
		return txUsers.Delete(ctx, id)
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log(ctx).Error("failed to delete user", redact.Attr(err), slog.Int64("user_id", id))
		}
		return domain.UserSnapshot{}, NewServiceError(userServiceName, "delete", "failed to delete user", err)
	}

	s.log(ctx).Info("user deleted", slog.Int64("user_id", id))
	return snapshot, nil
}
