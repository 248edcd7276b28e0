package database_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/database"
	"github.com/phrazzld/taskboard-api/internal/platform/database/databasetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("up creates every table and reset drops them", func(t *testing.T) {
		db := databasetest.New(t)
		for _, table := range []string{"users", "tasks", "projects", "comments", "notifications", "jobs"} {
			var n int
			require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table))
			assert.Equal(t, 1, n, table)
		}

		require.NoError(t, database.Migrate(db, database.DriverSQLite, "version", logger))
		require.NoError(t, database.Migrate(db, database.DriverSQLite, "reset", logger))

		var n int
		require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'tasks'`))
		assert.Zero(t, n)
	})

	t.Run("rejects unknown command and driver", func(t *testing.T) {
		db, err := database.Open(context.Background(), config.DatabaseConfig{Driver: database.DriverSQLite, URL: ":memory:"})
		require.NoError(t, err)
		defer db.Close()

		assert.Error(t, database.Migrate(db, database.DriverSQLite, "sideways", logger))
		assert.Error(t, database.Migrate(db, "mysql", "up", logger))
	})

	t.Run("open rejects unknown driver", func(t *testing.T) {
		_, err := database.Open(context.Background(), config.DatabaseConfig{Driver: "mysql"})
		assert.Error(t, err)
	})
}
