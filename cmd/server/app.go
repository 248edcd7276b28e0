package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskboard-api/internal/api"
	"github.com/phrazzld/taskboard-api/internal/api/middleware"
	"github.com/phrazzld/taskboard-api/internal/cache"
	"github.com/phrazzld/taskboard-api/internal/config"
	"github.com/phrazzld/taskboard-api/internal/events"
	"github.com/phrazzld/taskboard-api/internal/job"
	"github.com/phrazzld/taskboard-api/internal/notify"
	"github.com/phrazzld/taskboard-api/internal/platform/database"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/service/auth"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sqlx.DB

	userStore         store.UserStore
	taskStore         store.TaskStore
	notificationStore store.NotificationStore
	projectStore      store.ProjectStore
	commentStore      store.CommentStore

	jwtService auth.JWTService

	taskService         *service.TaskService
	userService         *service.UserService
	notificationService *service.NotificationService
	projectService      *service.ProjectService
	commentService      *service.CommentService

	cacheCloser  io.Closer
	eventEmitter *events.InMemoryEventEmitter
	jobRunner    *job.Runner
}

// newApplication creates a new application instance with all dependencies initialized.
// The database must already be open and migrated. The job runner is started
// before returning.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sqlx.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.userStore = database.NewUserStore(db, logger)
	app.taskStore = database.NewTaskStore(db, logger)
	app.notificationStore = database.NewNotificationStore(db, logger)
	app.projectStore = database.NewProjectStore(db, logger)
	app.commentStore = database.NewCommentStore(db, logger)

	cacheStore, closer, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	app.cacheCloser = closer
	taskCache := cache.New(cacheStore, service.TaskCacheTag,
		cache.WithDefaultTTL(cfg.Cache.TTL),
		cache.WithFlushUntagged(cfg.Cache.FlushUntagged),
		cache.WithLogger(logger))
	logger.Info("cache initialized", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.TTL)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	app.jobRunner, err = job.NewRunner(database.NewJobStore(db, logger), job.RunnerConfig{
		WorkerCount:     cfg.Jobs.WorkerCount,
		QueueSize:       cfg.Jobs.QueueSize,
		StuckJobAge:     cfg.Jobs.StuckJobAge,
		SweepInterval:   cfg.Jobs.SweepInterval,
		RetryBackoff:    cfg.Jobs.RetryBackoff,
		MaxRetryBackoff: cfg.Jobs.MaxRetryBackoff,
		DefaultTimeout:  cfg.Jobs.DefaultTimeout,
	}, logger)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to create job runner: %w", err)
	}

	if err := app.wireNotifications(); err != nil {
		_ = closer.Close()
		return nil, err
	}

	if err := app.initServices(taskCache); err != nil {
		_ = closer.Close()
		return nil, err
	}

	if err := app.jobRunner.Start(); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to start job runner: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// wireNotifications connects task.updated events to the fan-out and
// dispatch jobs executed by the runner.
func (app *application) wireNotifications() error {
	dispatch, err := notify.NewDispatchJobFactory(app.userStore, app.notificationStore, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create dispatch job factory: %w", err)
	}
	fanOut, err := notify.NewFanOutJobFactory(notify.NewAllUsersResolver(app.userStore), app.jobRunner, dispatch, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create fan-out job factory: %w", err)
	}
	listener, err := notify.NewFanOutListener(fanOut, app.jobRunner, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create fan-out listener: %w", err)
	}

	notify.RegisterJobs(app.jobRunner, fanOut, dispatch)
	app.eventEmitter.RegisterHandlerFor(events.TypeTaskUpdated, listener)
	return nil
}

func (app *application) initServices(taskCache *cache.Cache) error {
	opts := []service.Option{service.WithLogger(app.logger)}

	var err error
	app.taskService, err = service.NewTaskService(app.db, app.taskStore, taskCache, app.eventEmitter, opts...)
	if err != nil {
		return fmt.Errorf("failed to create task service: %w", err)
	}
	app.userService, err = service.NewUserService(app.db, app.userStore, auth.NewBcryptHasher(app.config.Auth.BCryptCost), opts...)
	if err != nil {
		return fmt.Errorf("failed to create user service: %w", err)
	}
	app.notificationService, err = service.NewNotificationService(app.db, app.userStore, app.notificationStore, opts...)
	if err != nil {
		return fmt.Errorf("failed to create notification service: %w", err)
	}
	app.projectService, err = service.NewProjectService(app.db, app.projectStore, app.userStore, opts...)
	if err != nil {
		return fmt.Errorf("failed to create project service: %w", err)
	}
	app.commentService, err = service.NewCommentService(app.db, app.commentStore, app.taskStore, opts...)
	if err != nil {
		return fmt.Errorf("failed to create comment service: %w", err)
	}
	return nil
}

// setupRouter builds the HTTP handler from the application services.
func (app *application) setupRouter() http.Handler {
	return api.NewRouter(api.Handlers{
		Auth:           api.NewAuthHandler(app.userService, app.jwtService, app.logger),
		Tasks:          api.NewTaskHandler(app.taskService, app.logger),
		Comments:       api.NewCommentHandler(app.commentService, app.logger),
		Projects:       api.NewProjectHandler(app.projectService, app.logger),
		Users:          api.NewUserHandler(app.userService, app.logger),
		Notifications:  api.NewNotificationHandler(app.notificationService, app.logger),
		AuthMiddleware: middleware.NewAuthMiddleware(app.jwtService),
		RateLimiter:    middleware.NewRateLimiter(app.config.Auth.RateLimitPerMinute),
		Logger:         app.logger,
	})
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.jobRunner != nil {
		app.jobRunner.Stop()
	}
	if app.cacheCloser != nil {
		if err := app.cacheCloser.Close(); err != nil {
			app.logger.Error("error closing cache", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
