package opinions

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eringen/opinions/store"
)

// SiteConfig holds all configuration for an opinions site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Opinions")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD

	ContactEmail string `yaml:"contact_email"` // Shown as a mailto link on the about page

	Addr           string `yaml:"addr"`            // Listen address (default ":3000")
	DatabaseDriver string `yaml:"database_driver"` // "sqlite" (default) or "pgx"
	DatabaseURL    string `yaml:"database_url"`    // SQLite path or Postgres DSN (default "data/opinions.db")
	UploadDir      string `yaml:"upload_dir"`      // Image library directory (default "data/uploads")

	SessionSecret string        `yaml:"session_secret"` // Required: session signing secret
	CookieSecure  bool          `yaml:"cookie_secure"`  // Set true for HTTPS
	SessionTTL    time.Duration `yaml:"session_ttl"`    // Admin session lifetime (default 12h)

	AdminEmail    string `yaml:"admin_email"`    // Bootstrap admin, created on start when set
	AdminPassword string `yaml:"admin_password"` // Bootstrap admin password

	LogLevel string `yaml:"log_level"` // debug, info, warn or error (default info)

	RelatedLimit    int    `yaml:"related_limit"`     // Related posts per article (default 3)
	ExcerptLength   int    `yaml:"excerpt_length"`    // Excerpt characters (default 150)
	WordsPerMinute  int    `yaml:"words_per_minute"`  // Read-time rate (default 200)
	DefaultImageURL string `yaml:"default_image_url"` // Cover used by posts without an image

	LoginAttempts int           `yaml:"login_attempts"` // Failed logins allowed per window (default 5)
	LoginWindow   time.Duration `yaml:"login_window"`   // Login rate-limit window (default 1m)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Opinions"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabaseDriver == "" {
		c.DatabaseDriver = store.DriverSQLite
	}
	if c.DatabaseURL == "" && c.DatabaseDriver == store.DriverSQLite {
		c.DatabaseURL = "data/opinions.db"
	}
	if c.UploadDir == "" {
		c.UploadDir = "data/uploads"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 12 * time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RelatedLimit == 0 {
		c.RelatedLimit = 3
	}
	if c.ExcerptLength == 0 {
		c.ExcerptLength = 150
	}
	if c.WordsPerMinute == 0 {
		c.WordsPerMinute = 200
	}
	if c.DefaultImageURL == "" {
		c.DefaultImageURL = "/public/placeholder.svg"
	}
	if c.LoginAttempts == 0 {
		c.LoginAttempts = 5
	}
	if c.LoginWindow == 0 {
		c.LoginWindow = time.Minute
	}
}

// LoadConfigFile reads a YAML config file. A missing path yields the zero config.
func LoadConfigFile(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("opinions: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("opinions: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *SiteConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("SITE_NAME", &c.Name)
	str("SITE_URL", &c.URL)
	str("SITE_DESCRIPTION", &c.Description)
	str("SITE_AUTHOR", &c.Author)
	str("CONTACT_EMAIL", &c.ContactEmail)
	str("ADDR", &c.Addr)
	str("DATABASE_DRIVER", &c.DatabaseDriver)
	str("DATABASE_URL", &c.DatabaseURL)
	str("UPLOAD_DIR", &c.UploadDir)
	str("SESSION_SECRET", &c.SessionSecret)
	str("ADMIN_EMAIL", &c.AdminEmail)
	str("ADMIN_PASSWORD", &c.AdminPassword)
	str("LOG_LEVEL", &c.LogLevel)

	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("opinions: COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}
	if v, ok := lookup("SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("opinions: SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	return nil
}

// LoadConfig layers defaults, the optional YAML file at path and the
// process environment, in increasing precedence.
func LoadConfig(path string) (SiteConfig, error) {
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	cfg.setDefaults()
	return cfg, nil
}

// Validate reports configuration the server cannot start without.
func (c SiteConfig) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("opinions: SessionSecret is required")
	}
	switch c.DatabaseDriver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		return fmt.Errorf("opinions: unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("opinions: DatabaseURL is required")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("opinions: AdminEmail and AdminPassword must be set together")
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithStore uses an already opened store instead of opening one from the
// config. The App does not close it.
func WithStore(s *store.Store) Option {
	return func(a *App) {
		a.Store = s
	}
}
