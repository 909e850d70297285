// Package bootstrap wires all dependencies and starts the application:
// configuration, logging, the storage client, the extension set, the
// assembled API, and the HTTP server around it.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/stacgate/stacgate/adapters/auth"
	"github.com/stacgate/stacgate/adapters/clock"
	stachttp "github.com/stacgate/stacgate/adapters/http"
	"github.com/stacgate/stacgate/adapters/idgen"
	"github.com/stacgate/stacgate/adapters/memory"
	"github.com/stacgate/stacgate/adapters/metrics"
	"github.com/stacgate/stacgate/adapters/sqlite"
	"github.com/stacgate/stacgate/api"
	"github.com/stacgate/stacgate/config"
	"github.com/stacgate/stacgate/core/extension"
	"github.com/stacgate/stacgate/core/openapi"
	"github.com/stacgate/stacgate/core/registry"
	"github.com/stacgate/stacgate/pkg/stac"
	"github.com/stacgate/stacgate/ports"
)

// Options controls application initialization.
type Options struct {
	// ConfigPath names the YAML config file. Empty or missing falls
	// back to STACGATE_* environment variables.
	ConfigPath string

	// HotReload watches the config file and SIGHUP. Only logging
	// fields apply live; topology changes log a restart notice.
	HotReload bool

	// MetricsRegistry overrides the default Prometheus registry.
	// Tests use this to keep registrations isolated.
	MetricsRegistry prometheus.Registerer
}

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Holder     *config.Holder
	DB         *sqlite.DB
	API        *api.API
	Metrics    *metrics.Collector
	OpenAPI    *openapi.Service
	HTTPServer *http.Server
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	cfg, err := config.LoadWithFallback(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info().
		Str("title", cfg.Catalog.Title).
		Str("storage", cfg.Storage.Driver).
		Strs("extensions", cfg.Extensions).
		Msg("initializing stacgate")

	a := &App{
		Logger: logger,
		Config: cfg,
	}

	if cfg.Metrics.Enabled {
		if opts.MetricsRegistry != nil {
			a.Metrics = metrics.NewWithRegistry(opts.MetricsRegistry)
		} else {
			a.Metrics = metrics.New()
		}
		logger.Info().Msg("prometheus metrics enabled")
	}

	binding, client, err := a.buildClient(cfg)
	if err != nil {
		return nil, err
	}

	overlays, err := a.buildOverlays(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := api.New(api.Config{
		Binding:    binding,
		Client:     client,
		Exceptions: exceptionTable(cfg.Exceptions),
		Overlays:   overlays,
		Logger:     logger,
	})
	if err != nil {
		a.closeDB()
		return nil, fmt.Errorf("assemble api: %w", err)
	}
	a.API = engine

	routerCfg := stachttp.RouterConfig{Metrics: a.Metrics}
	if cfg.OpenAPI.Enabled {
		a.OpenAPI = openapi.NewService(
			openapi.NewGenerator(cfg.Catalog.Title, cfg.Catalog.Description, cfg.Catalog.Version, cfg.Catalog.BaseURL),
			engine, logger,
		)
		routerCfg.OpenAPI = a.OpenAPI
		logger.Info().Msg("openapi document enabled")
	}

	router := stachttp.NewRouter(engine, logger, routerCfg)
	a.HTTPServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if opts.HotReload {
		if err := a.initHotReload(opts.ConfigPath); err != nil {
			logger.Warn().Err(err).Msg("hot reload unavailable")
		}
	}

	return a, nil
}

// buildClient constructs the configured storage client together with
// the deployment binding. Client-carrying extensions are constructed
// against a forward handle because the client itself needs the
// completed binding.
func (a *App) buildClient(cfg *config.Config) (ports.Binding, any, error) {
	ids := idgen.UUID{}

	switch cfg.Storage.Driver {
	case "memory":
		handle := &memoryHandle{}
		set, err := buildExtensionSet(cfg.Extensions, handle, handle, handle)
		if err != nil {
			return ports.Binding{}, nil, err
		}
		binding := a.binding(cfg, set)
		store := memory.NewStore(binding, ids)
		handle.store = store
		a.Logger.Info().Msg("memory storage initialized")
		return binding, store, nil

	case "sqlite":
		handle := &sqliteHandle{}
		set, err := buildExtensionSet(cfg.Extensions, handle, handle, handle)
		if err != nil {
			return ports.Binding{}, nil, err
		}
		binding := a.binding(cfg, set)

		db, err := sqlite.Open(cfg.Storage.DSN)
		if err != nil {
			return ports.Binding{}, nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return ports.Binding{}, nil, fmt.Errorf("migrate: %w", err)
		}
		a.DB = db

		client := sqlite.NewClient(db, binding, ids, clock.Real{})
		handle.client = client
		a.Logger.Info().Str("dsn", cfg.Storage.DSN).Msg("sqlite storage initialized")
		return binding, client, nil
	}

	return ports.Binding{}, nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

func (a *App) binding(cfg *config.Config, set *extension.Set) ports.Binding {
	return ports.Binding{
		Title:       cfg.Catalog.Title,
		Description: cfg.Catalog.Description,
		APIVersion:  cfg.Catalog.Version,
		STACVersion: stac.Version,
		BaseURL:     cfg.Catalog.BaseURL,
		Extensions:  set,
	}
}

// buildOverlays turns the auth section into a policy overlay carrying
// the API-key guard. Without configured scopes the guard covers the
// transaction write routes; the overlay is inert when those routes are
// not registered.
func (a *App) buildOverlays(cfg *config.Config) ([]registry.Overlay, error) {
	if !cfg.Auth.Enabled {
		return nil, nil
	}

	keyring := auth.NewKeyring(auth.NewBcrypt(0))
	for _, key := range cfg.Auth.Keys {
		if err := keyring.Add(key); err != nil {
			return nil, fmt.Errorf("hash api key: %w", err)
		}
	}
	for _, hash := range cfg.Auth.KeyHashes {
		keyring.AddHash([]byte(hash))
	}

	scopes := make([]registry.Scope, 0, len(cfg.Auth.Scopes))
	for _, s := range cfg.Auth.Scopes {
		scopes = append(scopes, registry.Scope{Path: s.Path, Method: s.Method})
	}
	if len(scopes) == 0 {
		scopes = writeScopes()
	}

	a.Logger.Info().Int("keys", keyring.Len()).Int("scopes", len(scopes)).Msg("api key guard enabled")
	return []registry.Overlay{{
		Scopes:       scopes,
		Dependencies: []registry.Dependency{auth.Guard(keyring, a.Logger)},
	}}, nil
}

// writeScopes covers the transaction routes.
func writeScopes() []registry.Scope {
	const (
		collectionsPath = "/catalogs/{catalog_id}/collections"
		collectionPath  = "/catalogs/{catalog_id}/collections/{collection_id}"
		itemsPath       = "/catalogs/{catalog_id}/collections/{collection_id}/items"
		itemPath        = "/catalogs/{catalog_id}/collections/{collection_id}/items/{item_id}"
	)
	return []registry.Scope{
		{Path: itemsPath, Method: http.MethodPost},
		{Path: itemPath, Method: http.MethodPut},
		{Path: itemPath, Method: http.MethodDelete},
		{Path: collectionsPath, Method: http.MethodPost},
		{Path: collectionPath, Method: http.MethodPut},
		{Path: collectionPath, Method: http.MethodDelete},
	}
}

func exceptionTable(overrides map[string]int) api.StatusTable {
	if len(overrides) == 0 {
		return nil
	}
	table := make(api.StatusTable, len(overrides))
	for kind, status := range overrides {
		table[api.ErrorKind(kind)] = status
	}
	return table
}

func (a *App) initHotReload(path string) error {
	if path == "" {
		return fmt.Errorf("no config file to watch")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file not found: %w", err)
	}

	holder, err := config.NewHolder(path, a.Logger)
	if err != nil {
		return err
	}
	if a.Metrics != nil {
		holder.WithMetrics(a.Metrics)
	}
	holder.OnChange(func(cfg *config.Config) {
		applyLogLevel(cfg.Logging.Level)
	})
	if err := holder.WatchFile(); err != nil {
		holder.Stop()
		return err
	}
	holder.WatchSignals()
	a.Holder = holder
	return nil
}

// Run starts the HTTP server and blocks until a signal or server error.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown stops the server, the config watcher, and the database.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Holder != nil {
		a.Holder.Stop()
	}
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}
	a.closeDB()

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

func (a *App) closeDB() {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
		a.DB = nil
	}
}

// setupLogger builds the root logger from the logging section.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	applyLogLevel(cfg.Level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func applyLogLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
