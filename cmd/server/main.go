// Package main implements the entry point for the taskboard API server,
// which serves tasks, projects, comments and user notifications over a
// JSON REST API and fans task updates out to every user in the background.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/platform/database"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
)

func main() {
	configFile := flag.String("config", "", "path to a config file (defaults to ./config.yaml when present)")
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, reset, status, version, create) and exit")
	migrationName := flag.String("name", "", "name of the migration to create with -migrate=create")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configFile, *migrateCmd, *migrationName); err != nil {
		log.Fatalf("taskboard-api: %v", err)
	}
}

func run(ctx context.Context, configFile, migrateCmd, migrationName string) error {
	cfg, err := loadAppConfig(configFile)
	if err != nil {
		return err
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	if migrateCmd == "create" {
		dir := filepath.Join("internal", "platform", "database", database.MigrationsDir(cfg.Database.Driver))
		l.Info("creating migration", slog.String("dir", dir), slog.String("name", migrationName))
		return database.CreateMigration(dir, cfg.Database.Driver, migrationName)
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	l.Info("database connection established", slog.String("driver", cfg.Database.Driver))

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		l.Info("executing migrations", slog.String("command", migrateCmd))
		return database.Migrate(db, cfg.Database.Driver, migrateCmd, l)
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, cfg.Database.Driver, "up", l); err != nil {
			_ = db.Close()
			return err
		}
	}

	app, err := newApplication(ctx, cfg, l, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

// loadAppConfig loads configuration from the environment and an optional
// config file.
func loadAppConfig(configFile string) (*config.Config, error) {
	var opts []config.Option
	if configFile != "" {
		opts = append(opts, config.WithConfigFile(configFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"cache_driver", cfg.Cache.Driver)
	if cfg.Auth.JWTSecret != "" {
		slog.Debug("auth configuration", "jwt_secret_present", true)
	}
	if _, ok := os.LookupEnv(config.EnvPrefix + "_DATABASE_URL"); ok {
		slog.Debug("database configuration", "url_from_env", true)
	}
	return cfg, nil
}
