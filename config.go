package prismblog

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/eringen/prismblog/views"
)

// SiteConfig holds all configuration for a prismblog site.
type SiteConfig struct {
	Name        string `mapstructure:"SITE_NAME"`        // Site name (default "spacetraveling")
	URL         string `mapstructure:"SITE_URL"`         // Canonical URL (default "http://localhost:3000")
	Description string `mapstructure:"SITE_DESCRIPTION"` // Site description for RSS and meta tags

	Repository    string `mapstructure:"PRISMIC_REPOSITORY"`     // Prismic repository name
	AccessToken   string `mapstructure:"PRISMIC_ACCESS_TOKEN"`   // Optional API access token
	Endpoint      string `mapstructure:"PRISMIC_ENDPOINT"`       // Overrides the endpoint derived from Repository
	WebhookSecret string `mapstructure:"PRISMIC_WEBHOOK_SECRET"` // Enables POST /api/revalidate/

	PostType string `mapstructure:"POST_TYPE"` // Custom type of posts (default "posts")
	PageSize int    `mapstructure:"PAGE_SIZE"` // Listing page size (default 3)

	Addr         string        `mapstructure:"ADDR"`          // Listen address (default ":3000")
	DatabasePath string        `mapstructure:"DATABASE_PATH"` // SQLite path (default under the XDG cache dir)
	CacheTTL     time.Duration `mapstructure:"CACHE_TTL"`     // Document cache TTL (default 5min)
	Timezone     string        `mapstructure:"TIMEZONE"`      // Zone of publication dates (default "America/Sao_Paulo")

	OutputDir      string `mapstructure:"OUTPUT_DIR"`      // Static build output (default "dist")
	LocalizeImages bool   `mapstructure:"LOCALIZE_IMAGES"` // Download and resize banners during builds

	Environment string `mapstructure:"ENVIRONMENT"` // "development" or "production"
	LogLevel    string `mapstructure:"LOG_LEVEL"`   // debug, info, warn or error

	MoreRequestsPerMinute int `mapstructure:"MORE_REQUESTS_PER_MINUTE"` // Load-more rate limit per IP (default 60)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.PostType == "" {
		c.PostType = "posts"
	}
	if c.PageSize <= 0 {
		c.PageSize = 3
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath()
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.Timezone == "" {
		c.Timezone = "America/Sao_Paulo"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MoreRequestsPerMinute <= 0 {
		c.MoreRequestsPerMinute = 60
	}
}

// Validate reports configuration that cannot work.
func (c SiteConfig) Validate() error {
	if c.Repository == "" && c.Endpoint == "" {
		return errors.New("prismblog: PRISMIC_REPOSITORY or PRISMIC_ENDPOINT is required")
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("prismblog: SITE_URL %q must be an absolute http(s) URL", c.URL)
	}
	return nil
}

// Location returns the zone used to format publication dates, falling back
// to UTC when Timezone is unknown.
func (c SiteConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ViewConfig returns the settings the page components need.
func (c SiteConfig) ViewConfig() views.SiteConfig {
	return views.SiteConfig{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		Location:    c.Location(),
	}
}

// DefaultDatabasePath is the document store location when DATABASE_PATH is
// not set.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.CacheHome, "prismblog", "documents.db")
}

var configKeys = []string{
	"SITE_NAME", "SITE_URL", "SITE_DESCRIPTION",
	"PRISMIC_REPOSITORY", "PRISMIC_ACCESS_TOKEN", "PRISMIC_ENDPOINT", "PRISMIC_WEBHOOK_SECRET",
	"POST_TYPE", "PAGE_SIZE", "ADDR", "DATABASE_PATH", "CACHE_TTL", "TIMEZONE",
	"OUTPUT_DIR", "LOCALIZE_IMAGES", "ENVIRONMENT", "LOG_LEVEL", "MORE_REQUESTS_PER_MINUTE",
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; variables already set in
// the environment win.
func LoadConfig(envFiles ...string) (SiteConfig, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return SiteConfig{}, fmt.Errorf("prismblog: load env file: %w", err)
	}

	v := viper.New()
	v.SetDefault("SITE_NAME", "spacetraveling")
	v.SetDefault("SITE_URL", "http://localhost:3000")
	v.SetDefault("POST_TYPE", "posts")
	v.SetDefault("PAGE_SIZE", 3)
	v.SetDefault("ADDR", ":3000")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("TIMEZONE", "America/Sao_Paulo")
	v.SetDefault("OUTPUT_DIR", "dist")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return SiteConfig{}, fmt.Errorf("prismblog: bind %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	var cfg SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("prismblog: unmarshal configuration: %w", err)
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	cfg.setDefaults()
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(l Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithSource replaces the content source built from the configuration.
func WithSource(s Source) Option {
	return func(a *App) {
		a.Content = s
	}
}

// WithHTTPClient sets the client used for content API requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
