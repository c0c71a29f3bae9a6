// Package nowdir serves several themed local-service directory sites from one
// process. Each request is mapped to a directory slug, which selects the
// site's DirectoryConfig and scopes its Supabase queries.
package nowdir

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/nowdirectories/nowdir/analytics"
	"github.com/nowdirectories/nowdir/directory"
)

// App is the central application. It wires together the directory
// registry, slug resolver, Supabase clients, analytics and handlers.
type App struct {
	Config      Config
	Echo        *echo.Echo
	Directories *directory.Registry
	Resolver    *directory.Resolver
	Analytics   *analytics.Store

	recorder     *analytics.Recorder
	stopCleanup  func()
	definitions  *directory.Definitions
	environ      func() []string
	staticFS     fs.FS
	customRoutes []func(*App)

	setupOnce sync.Once
	setupErr  error
}

// New creates an App. Nothing is opened until Setup or Start.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	a := &App{
		Config:  cfg,
		Echo:    e,
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.staticFS == nil {
		a.staticFS, _ = fs.Sub(EmbeddedAssets, "public")
	}
	return a
}

// Setup loads directory definitions, opens analytics and registers
// middleware and routes. It runs once; later calls return the first result.
func (a *App) Setup() error {
	a.setupOnce.Do(func() {
		a.setupErr = a.setup()
	})
	return a.setupErr
}

func (a *App) setup() error {
	if a.Config.DebugMode {
		a.Echo.Debug = true
		a.Echo.Logger.SetLevel(log.DEBUG)
	} else {
		a.Echo.Logger.SetLevel(log.INFO)
	}

	defs, err := a.loadDefinitions()
	if err != nil {
		return err
	}
	reg, err := directory.NewRegistry(defs.Directories, a.Config.DefaultDirectorySlug)
	if err != nil {
		return fmt.Errorf("nowdir: %w", err)
	}
	a.Directories = reg
	if _, ok := reg.Lookup(a.Config.DefaultDirectorySlug); !ok {
		a.Echo.Logger.Warnf("default directory %q is not defined; using generic config", a.Config.DefaultDirectorySlug)
	}
	a.Resolver = directory.NewResolver(reg, directory.ResolverOptions{
		Development:   a.Config.Development(),
		TrustOverride: a.Config.TrustDirectoryHeader || a.Config.DebugMode,
		BaseDomain:    a.Config.BaseDomain,
		DevPaths:      defs.DevPaths,
	})

	if a.Config.EnableAnalytics {
		store, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
		if err != nil {
			return fmt.Errorf("nowdir: init analytics: %w", err)
		}
		a.Analytics = store
		a.recorder = analytics.NewRecorder(store, a.directorySlug)
		a.stopCleanup = store.StartCleanupScheduler(365, 24*time.Hour, func(err error) {
			a.Echo.Logger.Errorf("analytics cleanup: %v", err)
		})
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.Echo.Logger.Infof("loaded %d directories (default %q, development=%t)",
		len(reg.All()), reg.DefaultSlug(), a.Config.Development())
	return nil
}

func (a *App) loadDefinitions() (directory.Definitions, error) {
	switch {
	case a.definitions != nil:
		return *a.definitions, nil
	case a.Config.DirectoriesFile != "":
		defs, err := directory.LoadFile(a.Config.DirectoriesFile)
		if err != nil {
			return directory.Definitions{}, fmt.Errorf("nowdir: load %s: %w", a.Config.DirectoriesFile, err)
		}
		return defs, nil
	default:
		defs, err := directory.Embedded()
		if err != nil {
			return directory.Definitions{}, fmt.Errorf("nowdir: %w", err)
		}
		return defs, nil
	}
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.StaticFS("/public", a.staticFS)
	e.FileFS("/favicon.svg", "favicon.svg", a.staticFS)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/healthz", handleHealth)

	e.GET("/", a.handleHome)
	e.GET("/listings/:id/", a.handleListing)

	api := e.Group("/api")
	api.GET("/debug-directory", a.handleDebugDirectory)
	api.GET("/env", a.handleEnv)
	if a.Config.DebugMode {
		api.GET("/stats", a.handleStats)
	}
}

// Start runs Setup and serves until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(); err != nil {
		return err
	}
	defer a.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.Echo.Shutdown(shutdownCtx)
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
		a.stopCleanup = nil
	}
	if a.recorder != nil {
		a.recorder.Close()
	}
	if a.Analytics != nil {
		return a.Analytics.Close()
	}
	return nil
}
