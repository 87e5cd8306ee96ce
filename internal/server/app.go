// Package server builds the dashboard's dependency graph and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/project-dashboard/internal/api"
	"github.com/JakeFAU/project-dashboard/internal/clock/system"
	"github.com/JakeFAU/project-dashboard/internal/config"
	"github.com/JakeFAU/project-dashboard/internal/dashboard"
	"github.com/JakeFAU/project-dashboard/internal/hash/sha256"
	"github.com/JakeFAU/project-dashboard/internal/id/uuid"
	"github.com/JakeFAU/project-dashboard/internal/logging"
	"github.com/JakeFAU/project-dashboard/internal/policy/ratelimit"
	"github.com/JakeFAU/project-dashboard/internal/project"
	memorypublisher "github.com/JakeFAU/project-dashboard/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/project-dashboard/internal/publisher/pubsub"
	gcsstorage "github.com/JakeFAU/project-dashboard/internal/storage/gcs"
	localstorage "github.com/JakeFAU/project-dashboard/internal/storage/local"
	memorystorage "github.com/JakeFAU/project-dashboard/internal/storage/memory"
	pgstore "github.com/JakeFAU/project-dashboard/internal/storage/postgres"
	sqlitestore "github.com/JakeFAU/project-dashboard/internal/storage/sqlite"
	"github.com/JakeFAU/project-dashboard/internal/telemetry"
)

const limiterSweepInterval = time.Minute

// App contains the application's dependencies.
type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	service        *dashboard.Service
	apiServer      *api.Server
	limiter        *ratelimit.Limiter
	store          project.Store
	blobs          project.BlobStore
	publisher      project.Publisher
	tracerShutdown telemetry.ShutdownFunc
	closeOnce      sync.Once
}

// NewApp creates an App shell holding cfg and logger.
func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	logger.Info("creating application",
		zap.Int("server_port", cfg.Server.Port),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("export_backend", cfg.Export.Backend),
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
	)
	return &App{cfg: cfg, logger: logger}
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Service returns the dashboard service used by the CLI commands.
func (a *App) Service() *dashboard.Service {
	return a.service
}

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run serves HTTP and blocks until the context is canceled or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application started")
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.limiter.Enabled() {
		go a.sweepLimiter(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: time.Duration(a.cfg.Server.ReadHeaderTimeoutSeconds) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	closeErr := a.Close(shutdownCtx)
	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
		return closeErr
	}
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.Server.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.cfg.Server.ShutdownTimeoutSeconds) * time.Second
}

func (a *App) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Sweep(); n > 0 {
				a.logger.Debug("rate limiter buckets evicted", zap.Int("count", n))
			}
		}
	}
}

// Close releases stores, clients, and telemetry. Later calls are no-ops.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		a.closeInfrastructure()
		a.closeObservability(ctx)
		a.logger.Info("shutdown complete")
	})
	return nil
}

func (a *App) closeInfrastructure() {
	if closer, ok := a.publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("publisher close failed", zap.Error(err))
		}
	}
	if closer, ok := a.blobs.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.logger.Warn("blob store close failed", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("project store close failed", zap.Error(err))
		}
	}
}

func (a *App) closeObservability(ctx context.Context) {
	if err := a.logger.Sync(); err != nil {
		a.logger.Debug("logger sync failed", zap.Error(err))
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
		Service:     cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return BuildWithLogger(ctx, cfg, logger)
}

// BuildWithLogger is Build with a caller-supplied logger.
func BuildWithLogger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := NewApp(cfg, logger)

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     cfg.Telemetry.Version,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("tracer init failed: %w", err)
	}
	app.tracerShutdown = shutdown

	app.logger.Info("building application dependencies")
	if err := setupProjectStore(ctx, app); err != nil {
		app.closeObservability(ctx)
		return nil, err
	}
	if err := setupBlobStore(ctx, app); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	if err := setupPublisher(ctx, app); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	app.service, err = dashboard.New(dashboard.Deps{
		Store:     app.store,
		Blobs:     app.blobs,
		Publisher: app.publisher,
		IDs:       uuid.New(),
		Clock:     system.New(),
		Hasher:    sha256.New(),
		Logger:    logger,
	}, dashboard.Options{
		MaxRows:      cfg.Query.MaxRows,
		CacheTTL:     cfg.CacheTTL(),
		QueryTimeout: cfg.QueryTimeout(),
		Topic:        cfg.PubSub.TopicName,
		ExportPrefix: cfg.Export.Prefix,
	})
	if err != nil {
		_ = app.Close(ctx)
		return nil, fmt.Errorf("dashboard init failed: %w", err)
	}

	app.limiter = setupLimiter(app)

	apiKey := ""
	if cfg.Auth.Enabled {
		apiKey = cfg.Auth.APIKey
	}
	app.apiServer = api.NewServer(app.service, logger.Named("api"), api.Options{
		APIKey:         apiKey,
		RequestTimeout: cfg.RequestTimeout(),
		PageSize:       cfg.Table.PageSize,
		Limiter:        app.limiter,
	})

	return app, nil
}

func setupProjectStore(ctx context.Context, app *App) error {
	switch app.cfg.Storage.Backend {
	case config.BackendPostgres:
		app.logger.Info("using postgres project store")
		store, err := pgstore.NewProjectStore(ctx, pgstore.Config{
			DSN:             app.cfg.Storage.Postgres.DSN,
			Table:           app.cfg.Storage.Postgres.Table,
			MaxConns:        app.cfg.Storage.Postgres.MaxConns,
			MinConns:        app.cfg.Storage.Postgres.MinConns,
			MaxConnLifetime: time.Duration(app.cfg.Storage.Postgres.MaxConnLifetimeSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("postgres store init failed: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return fmt.Errorf("postgres schema init failed: %w", err)
		}
		app.logger.Debug("postgres project store", zap.String("table", app.cfg.Storage.Postgres.Table))
		app.store = store
	case config.BackendSQLite:
		app.logger.Info("using sqlite project store")
		store, err := sqlitestore.Open(ctx, app.cfg.Storage.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite store init failed: %w", err)
		}
		app.logger.Debug("sqlite project store", zap.String("path", app.cfg.Storage.SQLite.Path))
		app.store = store
	default:
		app.logger.Warn("using in-memory project store, rows are lost on restart")
		app.store = memorystorage.NewProjectStore()
	}
	return nil
}

func setupBlobStore(ctx context.Context, app *App) error {
	switch app.cfg.Export.Backend {
	case config.BackendGCS:
		app.logger.Info("using GCS export backend")
		blobs, err := gcsstorage.Open(ctx, gcsstorage.Config{Bucket: app.cfg.Export.Bucket})
		if err != nil {
			return fmt.Errorf("gcs blob store init failed: %w", err)
		}
		app.logger.Debug("GCS export backend", zap.String("bucket", app.cfg.Export.Bucket))
		app.blobs = blobs
	case config.BackendLocal:
		app.logger.Info("using local export backend")
		blobs, err := localstorage.New(localstorage.Config{BaseDir: app.cfg.Export.LocalDir})
		if err != nil {
			return fmt.Errorf("local blob store init failed: %w", err)
		}
		app.logger.Debug("local export backend", zap.String("path", app.cfg.Export.LocalDir))
		app.blobs = blobs
	default:
		app.logger.Info("using in-memory export backend")
		app.blobs = memorystorage.NewBlobStore()
	}
	return nil
}

func setupPublisher(ctx context.Context, app *App) error {
	if !app.cfg.PubSubEnabled() {
		app.logger.Warn("no Pub/Sub project configured, using in-memory publisher")
		app.publisher = memorypublisher.New()
		return nil
	}
	publisher, err := gcppublisher.Open(ctx, gcppublisher.Config{ProjectID: app.cfg.PubSub.ProjectID})
	if err != nil {
		return fmt.Errorf("pubsub publisher init failed: %w", err)
	}
	app.logger.Info("Pub/Sub publisher initialized",
		zap.String("project", app.cfg.PubSub.ProjectID),
		zap.String("topic", app.cfg.PubSub.TopicName),
	)
	app.publisher = publisher
	return nil
}

func setupLimiter(app *App) *ratelimit.Limiter {
	if !app.cfg.RateLimit.Enabled {
		app.logger.Info("rate limiter disabled")
		return ratelimit.New(ratelimit.Config{})
	}
	app.logger.Info("rate limiter enabled",
		zap.Float64("rps", app.cfg.RateLimit.RPS),
		zap.Int("burst", app.cfg.RateLimit.Burst),
	)
	return ratelimit.New(ratelimit.Config{
		RPS:   app.cfg.RateLimit.RPS,
		Burst: app.cfg.RateLimit.Burst,
	})
}
