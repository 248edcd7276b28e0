// Package databasetest opens throwaway SQLite databases with the full
// schema applied, for tests that need real stores.
package databasetest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/database"
	"github.com/stretchr/testify/require"
)

// New opens an in-memory SQLite database, migrates it up and closes it
// when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver: database.DriverSQLite,
		URL:    ":memory:",
	})
	require.NoError(t, err, "open sqlite")
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, database.Migrate(db, database.DriverSQLite, "up", logger), "migrate")
	return db
}

// CreateUser inserts a user with the given email.
func CreateUser(t testing.TB, db *sqlx.DB, name, email string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	u := &domain.User{
		Name:           name,
		Email:          email,
		HashedPassword: "$2a$04$placeholderplaceholderplaceholderplaceholderpla",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, database.NewUserStore(db, nil).Create(context.Background(), u))
	return u
}

// CreateTask inserts a task with the given title and status.
func CreateTask(t testing.TB, db *sqlx.DB, title string, status domain.TaskStatus) *domain.Task {
	t.Helper()
	now := time.Now().UTC()
	task := &domain.Task{Title: title, Status: status, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, database.NewTaskStore(db, nil).Create(context.Background(), task))
	return task
}
