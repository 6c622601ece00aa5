// Package server assembles the process: it opens PostgreSQL and Redis,
// applies migrations, builds the token issuer, session gateway, avatar store
// and services, and serves the HTTP API until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/avatargate/internal/logging"
	"github.com/dmitrijs2005/avatargate/internal/server/auth"
	"github.com/dmitrijs2005/avatargate/internal/server/avatars"
	"github.com/dmitrijs2005/avatargate/internal/server/config"
	"github.com/dmitrijs2005/avatargate/internal/server/gateway"
	"github.com/dmitrijs2005/avatargate/internal/server/httpapi"
	"github.com/dmitrijs2005/avatargate/internal/server/metrics"
	"github.com/dmitrijs2005/avatargate/internal/server/ratelimit"
	"github.com/dmitrijs2005/avatargate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/avatargate/internal/server/services"
	"github.com/dmitrijs2005/avatargate/internal/server/sessions"
	"github.com/dmitrijs2005/avatargate/internal/server/shared/cache"
	"github.com/dmitrijs2005/avatargate/internal/server/shared/db"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// App owns the process-wide resources. Build it with NewApp and release it
// with Close.
type App struct {
	config *config.Config
	logger logging.Logger
	server *httpapi.Server

	closers []io.Closer
}

// NewApp builds the application from c: it connects to PostgreSQL, applies
// migrations, connects to Redis and assembles the HTTP stack. On failure
// everything opened so far is closed again before the error is returned.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, logCloser, err := logging.NewJSONLogger(c.LogFile, slog.LevelInfo)
	if err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger, closers: []io.Closer{logCloser}}
	if err := app.init(ctx); err != nil {
		logger.Error(ctx, "App init failed", "error", err)
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	sqlDB, err := db.OpenPostgres(ctx, c.DatabaseDSN, c.DatabaseName)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.closers = append(app.closers, sqlDB)

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, sqlDB); err != nil {
		return err
	}

	rdb, err := cache.OpenRedis(ctx, c.RedisURL)
	if err != nil {
		return fmt.Errorf("redis init error: %w", err)
	}
	app.closers = append(app.closers, rdb)

	handler, err := buildRouter(ctx, c, sqlDB, rdb, rm, app.logger)
	if err != nil {
		return err
	}
	app.server = httpapi.NewServer(c.HTTPAddr, handler, app.logger)
	return nil
}

func buildRouter(ctx context.Context, c *config.Config, sqlDB *sql.DB, rdb *redis.Client,
	rm repomanager.RepositoryManager, logger logging.Logger) (*gin.Engine, error) {

	issuer, err := auth.NewTokenIssuer([]byte(c.SecretKey))
	if err != nil {
		return nil, err
	}
	gate, err := gateway.New(issuer, sessions.NewRedisStore(rdb), c.AccessTokenValidityDuration, c.SessionTTL)
	if err != nil {
		return nil, err
	}

	store, err := newAvatarStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("avatar store init error: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	return httpapi.NewRouter(httpapi.Deps{
		Users:          services.NewUserService(sqlDB, rm, auth.NewPasswordHasher(c.BcryptCost), gate, logger),
		Avatars:        services.NewAvatarService(sqlDB, rm, store, logger),
		Gate:           gate,
		Limiter:        ratelimit.NewLimiter(rdb),
		Metrics:        metrics.New(),
		Logger:         logger,
		LoginRule:      ratelimit.Rule{Name: "login", Limit: 1, Window: c.LoginRateWindow},
		UploadRule:     ratelimit.Rule{Name: "upload", Limit: 1, Window: c.UploadRateWindow},
		MaxAvatarBytes: c.MaxAvatarBytes,
		RequestTimeout: c.RequestTimeout,
	}), nil
}

func newAvatarStore(ctx context.Context, c *config.Config) (avatars.Store, error) {
	switch c.AvatarBackend {
	case config.AvatarBackendFS:
		return avatars.NewFileStore(c.AvatarDir)
	case config.AvatarBackendS3:
		return avatars.NewS3Store(ctx, avatars.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown avatar backend %q", c.AvatarBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a shutdown signal arrives or ctx is done.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	app.logger.Info(ctx, "APP STARTED SUCCESSFULLY", "address", app.config.HTTPAddr)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}

// Close releases the resources in reverse order of acquisition.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
