package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/api/middleware"
	"github.com/phrazzld/tasks-api/internal/cache"
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/events"
	"github.com/phrazzld/tasks-api/internal/platform/sqldb"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/phrazzld/tasks-api/internal/taskquery"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	db      *sql.DB
	dialect taskquery.Dialect

	jwtService  auth.JWTService
	taskService service.TaskService
	pages       *cache.Cache[*service.TaskPage]
	limiter     *middleware.RateLimiter
}

// newApplication connects to the database, applies migrations when
// configured and wires the services.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, dialect, err := sqldb.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	app := &application{
		config:  cfg,
		logger:  logger,
		db:      db,
		dialect: dialect,
	}

	if cfg.Database.MigrateOnStart {
		version, err := sqldb.Migrate(ctx, db, dialect, logger)
		if err != nil {
			app.cleanup()
			return nil, err
		}
		logger.Info("database schema is up to date", "version", version)
	}

	if err := app.wireServices(); err != nil {
		app.cleanup()
		return nil, err
	}

	logger.Info("application initialized successfully")
	return app, nil
}

func (app *application) wireServices() error {
	var err error

	app.jwtService, err = auth.NewJWTService(app.config.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.pages, err = newPageCache(app.config.Cache, app.logger)
	if err != nil {
		return err
	}

	app.taskService, err = service.NewTaskService(
		sqldb.NewTaskStore(app.db, app.dialect, app.logger),
		app.pages,
		events.NewInMemoryEventEmitter(app.logger),
		app.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create task service: %w", err)
	}

	app.limiter = middleware.NewRateLimiter(app.config.RateLimit, app.logger)
	return nil
}

// newPageCache builds the task-list cache on the configured backend.
func newPageCache(cfg config.CacheConfig, logger *slog.Logger) (*cache.Cache[*service.TaskPage], error) {
	var backend cache.Backend

	switch cfg.Backend {
	case "sturdyc":
		b, err := cache.NewSturdycBackend(cache.SturdycConfig{
			Capacity:           cfg.Capacity,
			Shards:             cfg.Shards,
			TTL:                cfg.TTL(),
			EvictionPercentage: cache.DefaultSturdycConfig().EvictionPercentage,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create sturdyc cache backend: %w", err)
		}
		backend = b
	case "memory", "":
		backend = cache.NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	logger.Info("task list cache initialized",
		"backend", cfg.Backend,
		"ttl", cfg.TTL().String())

	return cache.New[*service.TaskPage](backend, cfg.TTL(), cache.WithLogger(logger)), nil
}

// Run serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup releases application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
		app.db = nil
	}
}
