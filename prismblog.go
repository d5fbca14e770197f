// Package prismblog is a blog front-end for a Prismic repository built with
// Go, Echo and templ. It serves a paginated post listing and one page per
// post, or writes the same pages to disk as a static site.
package prismblog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/prismblog/prismic"
	"github.com/eringen/prismblog/views"
)

// App wires together the content source, cache, store, handlers and
// middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Content Source
	Store   *Store
	Cache   *ContentCache
	Logger  Logger

	views        views.SiteConfig
	moreLimiter  *RateLimiter
	hookLimiter  *RateLimiter
	httpClient   *http.Client
	customRoutes []func(*App)
	initialized  bool
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config: cfg,
		Echo:   e,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = NewLogger(cfg.Environment, cfg.LogLevel)
	}
	a.views = cfg.ViewConfig()
	return a
}

// Init opens the store and sets up the cache, middleware and routes. Start
// calls it; tests call it directly and drive a.Echo with httptest.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if a.Content == nil {
		if err := a.Config.Validate(); err != nil {
			return err
		}
		var opts []prismic.Option
		if a.httpClient != nil {
			opts = append(opts, prismic.WithHTTPClient(a.httpClient))
		}
		a.Content = NewSource(a.Config, opts...)
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("prismblog: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewContentCache(a.Content, a.Store, a.Config, a.Logger)

	a.moreLimiter = NewRateLimiter(a.Config.MoreRequestsPerMinute, time.Minute)
	a.hookLimiter = NewRateLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Start initializes the app and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	a.Logger.Info(context.Background(), "listening", "addr", a.Config.Addr, "site", a.Config.URL)
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.StaticFS("/public", publicFS())
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/healthz", a.handleHealth)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/posts/more/", a.handleLoadMore)
	e.GET("/post/:uid/", a.handlePost)

	e.POST("/api/revalidate", a.handleRevalidate)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.moreLimiter != nil {
		a.moreLimiter.Stop()
	}
	if a.hookLimiter != nil {
		a.hookLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
