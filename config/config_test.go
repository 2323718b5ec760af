package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8083, cfg.Server.Port)
	assert.Equal(t, ":8083", cfg.Addr())
	assert.Equal(t, AuthProviderJWT, cfg.Auth.Provider)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 72*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, StorageBackendR2, cfg.Storage.Backend)
	assert.Equal(t, 5, cfg.RateLimit.AuthMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.AuthWindow)
	assert.Equal(t, 100, cfg.RateLimit.APIMax)
	assert.Equal(t, time.Minute, cfg.RateLimit.APIWindow)
}

func TestLoadStructuredEnvOverridesLegacy(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "structured")
	t.Setenv("JWT_SECRET", "legacy")
	t.Setenv("GOOGLE_API_KEY", "key")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_USERNAME", "wardrobe")
	t.Setenv("RATELIMIT_API_WINDOW", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "structured", cfg.Auth.JWTSecret)
	assert.Equal(t, "key", cfg.Gemini.APIKey)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "wardrobe", cfg.Database.User)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.APIWindow)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Auth:    AuthConfig{Provider: AuthProviderJWT, JWTSecret: "s"},
			Storage: StorageConfig{Backend: StorageBackendR2},
			Gemini:  GeminiConfig{APIKey: "k"},
		}
	}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret"},
		{"firebase needs no secret", func(c *Config) { c.Auth.Provider = AuthProviderFirebase; c.Auth.JWTSecret = "" }, ""},
		{"google needs client id", func(c *Config) { c.Auth.Provider = AuthProviderGoogle }, "google_client_id"},
		{"unknown provider", func(c *Config) { c.Auth.Provider = "saml" }, "unknown auth provider"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "ftp" }, "unknown storage backend"},
		{"missing gemini key", func(c *Config) { c.Gemini.APIKey = "" }, "gemini.api_key"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5432, Name: "wardrobe", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/wardrobe?sslmode=disable", d.DSN())
}
