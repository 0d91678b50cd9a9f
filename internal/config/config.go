// Package config loads the portal's settings from the environment.
//
// A .env file in the working directory is read first when present; variables already
// set in the environment win over it. Load never exits the process: every problem is
// collected and returned so main can log them together.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hitk-robotics/club-portal/internal/auth"
	"github.com/hitk-robotics/club-portal/internal/storage"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
)

type Config struct {
	Port         int
	CookieSecure bool

	Store   StoreConfig
	Auth    AuthConfig
	GitHub  GitHubConfig
	Uploads storage.Config
	Log     LogConfig

	// Organizer is seeded on startup when Email is set.
	Organizer OrganizerConfig
}

type StoreConfig struct {
	Backend     string
	DBPath      string // sqlite
	DatabaseURL string // postgres
	SupabaseURL string
	SupabaseKey string
}

type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
	RedisURL   string // empty keeps sessions in memory
}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether GitHub login should be offered.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type OrganizerConfig struct {
	Email        string
	FullName     string
	PasswordHash string
}

type LogConfig struct {
	Level  slog.Level
	Format string // "json" or "text"
}

// Load reads .env (if any) and the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, usually os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		Port:         p.integer("PORT", 8080),
		CookieSecure: p.boolean("COOKIE_SECURE", false),
		Store: StoreConfig{
			Backend:     strings.ToLower(p.str("STORE_BACKEND", BackendSQLite)),
			DBPath:      p.str("DB_PATH", "data/portal.db"),
			DatabaseURL: p.str("DATABASE_URL", ""),
			SupabaseURL: p.str("SUPABASE_URL", ""),
			SupabaseKey: p.str("SUPABASE_KEY", ""),
		},
		Auth: AuthConfig{
			JWTSecret:  p.str("JWT_SECRET", ""),
			SessionTTL: p.duration("SESSION_TTL", 24*time.Hour),
			RedisURL:   p.str("REDIS_URL", ""),
		},
		GitHub: GitHubConfig{
			ClientID:     p.str("GITHUB_CLIENT_ID", ""),
			ClientSecret: p.str("GITHUB_CLIENT_SECRET", ""),
		},
		Uploads: storage.Config{
			Endpoint:        p.str("R2_ENDPOINT", ""),
			Bucket:          p.str("R2_BUCKET", ""),
			AccessKeyID:     p.str("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: p.str("R2_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   p.str("R2_PUBLIC_URL", ""),
		},
		Log: LogConfig{
			Level:  p.level("LOG_LEVEL", slog.LevelInfo),
			Format: strings.ToLower(p.str("LOG_FORMAT", "text")),
		},
		Organizer: OrganizerConfig{
			Email:        p.str("ORGANIZER_EMAIL", ""),
			FullName:     p.str("ORGANIZER_NAME", "Organizer"),
			PasswordHash: p.str("ORGANIZER_PASSWORD_HASH", ""),
		},
	}
	cfg.GitHub.CallbackURL = p.str("GITHUB_CALLBACK_URL", fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port))

	p.errs = append(p.errs, cfg.validate()...)
	if len(p.errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(p.errs...))
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}

	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite backend"))
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendSupabase:
		if c.Store.SupabaseURL == "" || c.Store.SupabaseKey == "" {
			errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_KEY are required for the supabase backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND %q is not one of sqlite, postgres, supabase", c.Store.Backend))
	}

	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be set to at least 16 characters"))
	}
	if c.Auth.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	if c.Organizer.Email != "" && !auth.IsHash(c.Organizer.PasswordHash) {
		errs = append(errs, errors.New("ORGANIZER_PASSWORD_HASH must be a bcrypt hash when ORGANIZER_EMAIL is set"))
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not json or text", c.Log.Format))
	}
	return errs
}

// parser reads typed values and remembers every malformed one.
type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return i
}

func (p *parser) boolean(key string, def bool) bool {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	v := p.str(key, "")
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a log level", key, v))
		return def
	}
	return l
}
