// Package app initializes and runs the todo list service.
// It configures logging, storage, the optional todo cache, authentication
// and routing, and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/todolist/internal/auth"
	"github.com/patric-chuzhbe/todolist/internal/cache/rediscache"
	"github.com/patric-chuzhbe/todolist/internal/config"
	"github.com/patric-chuzhbe/todolist/internal/controller"
	"github.com/patric-chuzhbe/todolist/internal/db/jsondb"
	"github.com/patric-chuzhbe/todolist/internal/db/memorystorage"
	"github.com/patric-chuzhbe/todolist/internal/db/postgresdb"
	"github.com/patric-chuzhbe/todolist/internal/db/storage"
	"github.com/patric-chuzhbe/todolist/internal/ipchecker"
	"github.com/patric-chuzhbe/todolist/internal/logger"
	"github.com/patric-chuzhbe/todolist/internal/metrics"
	"github.com/patric-chuzhbe/todolist/internal/models"
	"github.com/patric-chuzhbe/todolist/internal/pages"
	"github.com/patric-chuzhbe/todolist/internal/router"
	"github.com/patric-chuzhbe/todolist/internal/service"
	"github.com/patric-chuzhbe/todolist/internal/validator"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the configuration, HTTP handler, storage backend and
// todo cache needed to run the service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	cache       *rediscache.Cache
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - connecting the todo cache when a Redis address is configured
// - setting up the router and middleware
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	var serviceOptions []service.InitOption
	if app.cfg.RedisAddr != "" {
		app.cache, err = rediscache.New(
			context.Background(),
			app.cfg.RedisAddr,
			app.cfg.RedisPassword,
			app.cfg.RedisDB,
			app.cfg.TodosCacheTTL,
		)
		if err != nil {
			return nil, errors.Join(err, app.db.Close())
		}
		serviceOptions = append(serviceOptions, service.WithTodosCache(app.cache))
	}

	checker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, errors.Join(err, app.closeStorages())
	}

	routerOptions := []router.InitOption{
		router.WithIPChecker(checker),
		router.WithMetrics(metrics.New()),
	}
	if app.cfg.StaticDir != "" {
		routerOptions = append(routerOptions, router.WithPages(pages.New(app.cfg.StaticDir)))
	}

	authenticator := auth.New(app.db, []byte(app.cfg.TokenSigningSecretKey), app.cfg.TokenTTL)

	app.httpHandler = router.New(
		controller.New(service.New(app.db, serviceOptions...), authenticator),
		authenticator,
		validator.New(app.db),
		routerOptions...,
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:              a.cfg.RunAddr,
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing storage and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Join(fmt.Errorf("server shutdown error: %w", err), a.closeStorages())
		}

		return a.closeStorages()

	case err := <-serverErrCh:
		return errors.Join(fmt.Errorf("server error: %w", err), a.closeStorages())
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func (a *App) closeStorages() error {
	var cacheErr error
	if a.cache != nil {
		cacheErr = a.cache.Close()
		if cacheErr != nil {
			logger.Log.Debugln("Error calling the `a.cache.Close()`: ", zap.Error(cacheErr))
		}
	}

	return errors.Join(cacheErr, a.db.Close())
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
