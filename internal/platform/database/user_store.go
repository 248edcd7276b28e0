package database

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// UserStore implements store.UserStore.
type UserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewUserStore creates a UserStore. If logger is nil, a default logger is used.
func NewUserStore(db store.DBTX, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*UserStore)(nil)

// WithTx implements store.UserStore.
func (s *UserStore) WithTx(tx *sqlx.Tx) store.UserStore {
	return &UserStore{db: tx, logger: s.logger}
}

// Create implements store.UserStore.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	query := s.db.Rebind(`
		INSERT INTO users (name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`)

	err := s.db.QueryRowxContext(ctx, query,
		user.Name,
		user.Email,
		user.HashedPassword,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	).Scan(&user.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			s.logger.DebugContext(ctx, "email already registered")
			return store.ErrEmailExists
		}
		s.logger.ErrorContext(ctx, "failed to create user", slog.String("error", err.Error()))
		return store.NewStoreError("user", "create", "insert failed", MapError(err))
	}
	return nil
}

// GetByID implements store.UserStore.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	if err := sqlx.GetContext(ctx, s.db, &user, query, id); err != nil {
		return nil, mapNotFound(err, store.ErrUserNotFound)
	}
	return &user, nil
}

// GetByEmail implements store.UserStore.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	if err := sqlx.GetContext(ctx, s.db, &user, query, email); err != nil {
		return nil, mapNotFound(err, store.ErrUserNotFound)
	}
	return &user, nil
}

// List implements store.UserStore.
func (s *UserStore) List(ctx context.Context, page domain.PageRequest) ([]domain.User, int64, error) {
	page = page.Normalize()

	var total int64
	if err := sqlx.GetContext(ctx, s.db, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, store.NewStoreError("user", "list", "count failed", MapError(err))
	}

	users := []domain.User{}
	query := s.db.Rebind(`SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT ? OFFSET ?`)
	if err := sqlx.SelectContext(ctx, s.db, &users, query, page.PerPage, page.Offset()); err != nil {
		s.logger.ErrorContext(ctx, "failed to list users", slog.String("error", err.Error()))
		return nil, 0, store.NewStoreError("user", "list", "select failed", MapError(err))
	}
	return users, total, nil
}

// Delete implements store.UserStore.
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete user",
			slog.Int64("user_id", id),
			slog.String("error", err.Error()))
		return store.NewStoreError("user", "delete", "delete failed", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}
