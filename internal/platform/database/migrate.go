package database

import (
	"embed"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

const migrationTableName = "schema_migrations"

// goose keeps its dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

// slogGooseLogger adapts goose's logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf implements goose.Logger. It logs instead of exiting so the
// caller's error handling stays in control.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// MigrationsDir returns the embedded migrations directory for driver.
func MigrationsDir(driver string) string {
	return path.Join("migrations", driver)
}

func gooseDialect(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "postgres", nil
	case DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate runs a goose command against db using the embedded migrations
// for driver. Supported commands are up, down, reset, status and version.
func Migrate(db *sqlx.DB, driver, command string, logger *slog.Logger) error {
	dialect, err := gooseDialect(driver)
	if err != nil {
		return err
	}
	if logger == nil {
		logger = slog.Default()
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(&slogGooseLogger{logger: logger.With("component", "migrations")})
	goose.SetTableName(migrationTableName)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	dir := MigrationsDir(driver)
	switch command {
	case "up":
		err = goose.Up(db.DB, dir)
	case "down":
		err = goose.Down(db.DB, dir)
	case "reset":
		err = goose.Reset(db.DB, dir)
	case "status":
		err = goose.Status(db.DB, dir)
	case "version":
		err = goose.Version(db.DB, dir)
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	return nil
}

// CreateMigration writes a new, empty SQL migration for driver into dir
// on disk.
func CreateMigration(dir, driver, name string) error {
	if name == "" {
		return fmt.Errorf("migration name is required")
	}
	if _, err := gooseDialect(driver); err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(nil)
	goose.SetSequential(true)
	if err := goose.Create(nil, filepath.Join(dir, driver), name, "sql"); err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}
	return nil
}
