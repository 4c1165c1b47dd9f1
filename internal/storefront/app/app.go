package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/zefruta/storefront/internal/storefront/http"
	"github.com/zefruta/storefront/internal/storefront/store"
	"github.com/zefruta/storefront/internal/storefront/store/drivers/memory"
	"github.com/zefruta/storefront/internal/storefront/store/drivers/sqlite"
	"github.com/zefruta/storefront/pkg/authsdk"
	"github.com/zefruta/storefront/pkg/cryptox"
	"github.com/zefruta/storefront/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application wires the session core, storage and HTTP surface of the
// storefront.
type Application struct {
	cfg    Config
	logger *slog.Logger

	durable   store.Store
	transient store.Store

	Sessions *authsdk.SessionStore
	Client   *authsdk.APIClient
	Gateway  *authsdk.Gateway
	Callback *authsdk.Callback
	Guard    *authsdk.Guard
	Provider *authsdk.Provider

	server *http.Server
	router *httpapi.Router
}

// New opens storage and builds the session core. The HTTP server is only
// set up by Run, so CLI commands can use an Application without serving.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "storefront",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  os.Stderr,
		}),
	}

	if err := app.initStorage(); err != nil {
		return nil, err
	}
	app.initSession()

	return app, nil
}

// Logger returns the application logger.
func (app *Application) Logger() *slog.Logger { return app.logger }

// Run serves HTTP and blocks until a shutdown signal or server error.
func (app *Application) Run() error {
	if err := app.initHTTP(); err != nil {
		return err
	}

	app.Provider.Start(context.Background())

	app.logger.Info("storefront starting",
		"addr", app.cfg.Addr(),
		"version", BuildVersion,
		"api_url", app.cfg.APIURL,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown stops the server and releases storage.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down storefront...")

	if app.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
		defer cancel()

		if err := app.server.Shutdown(ctx); err != nil {
			app.logger.Error("graceful server shutdown failed", "error", err)
			if err := app.server.Close(); err != nil {
				app.logger.Error("error closing server", "error", err)
			}
		}
	}

	if err := app.Close(); err != nil {
		return err
	}

	app.logger.Info("storefront stopped")
	return nil
}

// Close waits for background profile work and closes storage.
func (app *Application) Close() error {
	app.Sessions.Wait()

	return errors.Join(
		app.transient.Close(),
		app.durable.Close(),
	)
}

func (app *Application) initStorage() error {
	material, err := cryptox.LoadOrCreateKeyFile(app.cfg.MasterKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}
	sealer, err := cryptox.NewSealer(material)
	if err != nil {
		return fmt.Errorf("failed to initialize sealer: %w", err)
	}

	db, err := sqlite.NewStore(sqliteDSN(app.cfg.DatabaseFile), sealer)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.logger.Debug("database migrations applied", "file", app.cfg.DatabaseFile)

	app.durable = db
	app.transient = memory.NewStore()
	return nil
}

// MigrateUp applies pending migrations to the database in cfg and returns
// the resulting schema version.
func MigrateUp(cfg Config) (uint, error) {
	db, err := sqlite.NewStore(sqliteDSN(cfg.DatabaseFile), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.ApplyMigrations(); err != nil {
		return 0, err
	}
	version, _, err := db.MigrationVersion()
	return version, err
}

func sqliteDSN(file string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", file)
}

func (app *Application) initSession() {
	lib := slogx.Logr(app.logger)

	app.Client = authsdk.NewAPIClient(app.cfg.APIFetchURL)
	app.Client.HTTPClient.Timeout = app.cfg.HTTPClientTimeout

	app.Sessions = authsdk.NewSessionStore(app.durable, app.transient,
		authsdk.WithLogger(lib),
		authsdk.WithProfileFetcher(app.Client),
		authsdk.WithProfileTimeout(app.cfg.ProfileTimeout),
	)

	app.Gateway = authsdk.NewGateway(app.Client, app.Sessions, lib)
	app.Callback = &authsdk.Callback{Store: app.Sessions, Logger: lib}
	app.Provider = authsdk.NewProvider(app.Sessions, lib)
	app.Guard = &authsdk.Guard{
		Store:     app.Sessions,
		Provider:  app.Provider,
		LoginPath: authsdk.DefaultLoginPath,
	}
}

func (app *Application) initHTTP() error {
	router, err := httpapi.NewRouter(httpapi.RouterOptions{
		BuildVersion: BuildVersion,
		APIURL:       app.cfg.APIURL,
		CallbackURL:  app.cfg.CallbackURL(),
		FeedPaths:    app.cfg.FeedPaths,
		RateLimits:   app.cfg.RateLimits,
	}, app.durable, app.logger)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	router.Sessions = app.Sessions
	router.Callback = app.Callback
	router.Gateway = app.Gateway
	router.Guard = app.Guard
	router.Provider = app.Provider
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}

// MigrateDown rolls back up to steps migrations and returns the resulting
// schema version.
func MigrateDown(cfg Config, steps int) (uint, error) {
	db, err := sqlite.NewStore(sqliteDSN(cfg.DatabaseFile), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.RollbackMigrations(steps); err != nil {
		return 0, err
	}
	version, _, err := db.MigrationVersion()
	return version, err
}
