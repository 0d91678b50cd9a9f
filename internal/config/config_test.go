package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

const testSecret = "0123456789abcdef0123"

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{"JWT_SECRET": testSecret}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "data/portal.db", cfg.Store.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Empty(t, cfg.Auth.RedisURL)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "http://localhost:8080/auth/github/callback", cfg.GitHub.CallbackURL)
	assert.False(t, cfg.GitHub.Enabled())
	assert.False(t, cfg.Uploads.Enabled())
	assert.False(t, cfg.CookieSecure)
}

func TestOverrides(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("organizer-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg, err := FromEnv(envFrom(map[string]string{
		"PORT":                    "9090",
		"STORE_BACKEND":           "Postgres",
		"DATABASE_URL":            "postgres://portal@localhost/portal",
		"JWT_SECRET":              testSecret,
		"SESSION_TTL":             "2h",
		"REDIS_URL":               "redis://localhost:6379/0",
		"GITHUB_CLIENT_ID":        "id",
		"GITHUB_CLIENT_SECRET":    "secret",
		"R2_ENDPOINT":             "https://acct.r2.cloudflarestorage.com",
		"R2_BUCKET":               "portal",
		"R2_ACCESS_KEY_ID":        "key",
		"R2_SECRET_ACCESS_KEY":    "secret",
		"LOG_LEVEL":               "debug",
		"LOG_FORMAT":              "JSON",
		"COOKIE_SECURE":           "true",
		"ORGANIZER_EMAIL":         "lead@club.org",
		"ORGANIZER_PASSWORD_HASH": string(hash),
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "http://localhost:9090/auth/github/callback", cfg.GitHub.CallbackURL)
	assert.True(t, cfg.GitHub.Enabled())
	assert.True(t, cfg.Uploads.Enabled())
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "Organizer", cfg.Organizer.FullName)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET"},
		{"bad port", map[string]string{"JWT_SECRET": testSecret, "PORT": "eighty"}, "PORT"},
		{"port out of range", map[string]string{"JWT_SECRET": testSecret, "PORT": "70000"}, "out of range"},
		{"bad ttl", map[string]string{"JWT_SECRET": testSecret, "SESSION_TTL": "forever"}, "SESSION_TTL"},
		{"negative ttl", map[string]string{"JWT_SECRET": testSecret, "SESSION_TTL": "-1h"}, "positive"},
		{"unknown backend", map[string]string{"JWT_SECRET": testSecret, "STORE_BACKEND": "mongo"}, "STORE_BACKEND"},
		{"postgres without url", map[string]string{"JWT_SECRET": testSecret, "STORE_BACKEND": "postgres"}, "DATABASE_URL"},
		{"supabase without key", map[string]string{"JWT_SECRET": testSecret, "STORE_BACKEND": "supabase", "SUPABASE_URL": "https://x.supabase.co"}, "SUPABASE_KEY"},
		{"plaintext organizer password", map[string]string{"JWT_SECRET": testSecret, "ORGANIZER_EMAIL": "lead@club.org", "ORGANIZER_PASSWORD_HASH": "hunter2"}, "bcrypt"},
		{"bad log level", map[string]string{"JWT_SECRET": testSecret, "LOG_LEVEL": "loud"}, "LOG_LEVEL"},
		{"bad log format", map[string]string{"JWT_SECRET": testSecret, "LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		{"bad bool", map[string]string{"JWT_SECRET": testSecret, "COOKIE_SECURE": "maybe"}, "COOKIE_SECURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envFrom(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestErrorsAreCollected(t *testing.T) {
	_, err := FromEnv(envFrom(map[string]string{"PORT": "x", "LOG_FORMAT": "xml"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "LOG_FORMAT")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
