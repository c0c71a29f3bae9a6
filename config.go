package nowdir

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/nowdirectories/nowdir/directory"
)

// PublicEnvPrefix marks environment variables that are safe to expose to
// browsers through /api/env.
const PublicEnvPrefix = "PUBLIC_"

// Config is the runtime environment of the process. It is read once at
// start and never mutated afterwards.
type Config struct {
	Addr        string `env:"ADDR" envDefault:":3000"`
	Environment string `env:"APP_ENV" envDefault:"production"` // "development" enables path routing

	DefaultDirectorySlug string `env:"DEFAULT_DIRECTORY_SLUG" envDefault:"notaryfindernow"`
	DirectoriesFile      string `env:"DIRECTORIES_FILE"` // optional YAML overriding the embedded definitions
	BaseDomain           string `env:"BASE_DOMAIN"`      // "<slug>.<BaseDomain>" hosts
	TrustDirectoryHeader bool   `env:"TRUST_DIRECTORY_HEADER"`

	// Client-safe values.
	PublicSupabaseURL     string `env:"PUBLIC_SUPABASE_URL"`
	PublicSupabaseAnonKey string `env:"PUBLIC_SUPABASE_ANON_KEY"`

	// Server-only secrets; never exposed.
	SupabaseURL            string `env:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`

	EnableAnalytics       bool   `env:"ENABLE_ANALYTICS"`
	AnalyticsDatabasePath string `env:"ANALYTICS_DATABASE_PATH" envDefault:"data/analytics.db"`

	DebugMode    bool `env:"DEBUG_MODE"`
	CookieSecure bool `env:"COOKIE_SECURE"` // set true behind HTTPS
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("nowdir: parse env: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// setDefaults covers Configs built in code rather than by LoadConfig.
func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
	if c.DefaultDirectorySlug == "" {
		c.DefaultDirectorySlug = "notaryfindernow"
	}
	if c.AnalyticsDatabasePath == "" {
		c.AnalyticsDatabasePath = "data/analytics.db"
	}
	c.PublicSupabaseURL = strings.TrimSuffix(c.PublicSupabaseURL, "/")
	c.SupabaseURL = strings.TrimSuffix(c.SupabaseURL, "/")
}

// Development reports whether local development routing is enabled.
func (c Config) Development() bool {
	return strings.EqualFold(c.Environment, "development")
}

// Option configures additional App behavior.
type Option func(*App)

// WithDefinitions replaces the embedded directory definitions.
func WithDefinitions(defs directory.Definitions) Option {
	return func(a *App) {
		a.definitions = &defs
	}
}

// WithEnviron replaces os.Environ as the source for /api/env.
func WithEnviron(fn func() []string) Option {
	return func(a *App) {
		a.environ = fn
	}
}

// WithStaticDir serves /public from dir instead of the embedded assets.
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticFS = os.DirFS(dir)
	}
}

// WithStaticFS serves /public from fsys.
func WithStaticFS(fsys fs.FS) Option {
	return func(a *App) {
		a.staticFS = fsys
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes during Setup.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
