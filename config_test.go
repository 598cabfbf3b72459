package opinions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	var cfg SiteConfig
	cfg.setDefaults()

	assert.Equal(t, "Opinions", cfg.Name)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "data/opinions.db", cfg.DatabaseURL)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.RelatedLimit)
	assert.Equal(t, 150, cfg.ExcerptLength)
	assert.Equal(t, 200, cfg.WordsPerMinute)
	assert.Equal(t, 5, cfg.LoginAttempts)
	assert.Equal(t, time.Minute, cfg.LoginWindow)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opinions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: My Shelf
url: https://shelf.example
session_secret: from-file
session_ttl: 2h
related_limit: 5
cookie_secure: true
`), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "My Shelf", cfg.Name)
	assert.Equal(t, "https://shelf.example", cfg.URL)
	assert.Equal(t, "from-file", cfg.SessionSecret)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.RelatedLimit)
	assert.True(t, cfg.CookieSecure)

	empty, err := LoadConfigFile("")
	require.NoError(t, err)
	assert.Equal(t, SiteConfig{}, empty)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnvOverridesFile(t *testing.T) {
	cfg := SiteConfig{Name: "From File", SessionSecret: "file-secret"}
	env := map[string]string{
		"SITE_NAME":       "From Env",
		"DATABASE_DRIVER": "pgx",
		"DATABASE_URL":    "postgres://localhost/opinions",
		"COOKIE_SECURE":   "true",
		"SESSION_TTL":     "30m",
		"LOG_LEVEL":       "debug",
		"SITE_URL":        "",
		"CONTACT_EMAIL":   "hello@opinions.test",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "From Env", cfg.Name)
	assert.Equal(t, "file-secret", cfg.SessionSecret)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://localhost/opinions", cfg.DatabaseURL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Empty(t, cfg.URL)
	assert.Equal(t, "hello@opinions.test", cfg.ContactEmail)
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"COOKIE_SECURE": "maybe",
		"SESSION_TTL":   "forever",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			var cfg SiteConfig
			err := cfg.ApplyEnv(func(k string) (string, bool) {
				if k == key {
					return val, true
				}
				return "", false
			})
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestValidate(t *testing.T) {
	base := SiteConfig{SessionSecret: "s"}
	base.setDefaults()
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*SiteConfig)
		want   string
	}{
		{"missing secret", func(c *SiteConfig) { c.SessionSecret = "" }, "SessionSecret"},
		{"bad driver", func(c *SiteConfig) { c.DatabaseDriver = "mysql" }, "unsupported database driver"},
		{"missing database", func(c *SiteConfig) { c.DatabaseURL = "" }, "DatabaseURL"},
		{"admin without password", func(c *SiteConfig) { c.AdminEmail = "a@b.c" }, "set together"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
