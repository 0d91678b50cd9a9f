// Package main is the entry point for the robotics club portal server.
//
// main stays small: load configuration, open the backends it names, hand them to
// internal/server and block until shutdown. All behaviour lives in internal/.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hitk-robotics/club-portal/internal/auth"
	"github.com/hitk-robotics/club-portal/internal/config"
	"github.com/hitk-robotics/club-portal/internal/repository"
	"github.com/hitk-robotics/club-portal/internal/repository/postgres"
	"github.com/hitk-robotics/club-portal/internal/repository/sqlite"
	"github.com/hitk-robotics/club-portal/internal/repository/supabase"
	"github.com/hitk-robotics/club-portal/internal/server"
	"github.com/hitk-robotics/club-portal/internal/session"
	"github.com/hitk-robotics/club-portal/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Anything opened below is closed again if run returns before Start takes it over.
	td := &teardown{logger: logger}
	defer td.run()

	// === Store ===
	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	td.add("store", store.Close)
	logger.Info("store ready", slog.String("backend", cfg.Store.Backend))

	// === Sessions ===
	var sessions session.Store
	if cfg.Auth.RedisURL != "" {
		sessions, err = session.NewRedisStore(ctx, cfg.Auth.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		logger.Info("sessions stored in redis")
	} else {
		sessions = session.NewMemoryStore()
		logger.Warn("REDIS_URL not set: sessions are kept in memory and lost on restart")
	}
	td.add("session store", sessions.Close)

	// === Auth ===
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return err
	}
	var github *auth.GitHubProvider
	if cfg.GitHub.Enabled() {
		github = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	} else {
		logger.Warn("GitHub login disabled: GITHUB_CLIENT_ID/GITHUB_CLIENT_SECRET not set")
	}

	// === Uploads ===
	var uploads *storage.ObjectStore
	if cfg.Uploads.Enabled() {
		uploads, err = storage.New(ctx, cfg.Uploads)
		if err != nil {
			return fmt.Errorf("configuring object storage: %w", err)
		}
	} else {
		logger.Warn("object storage not configured: uploads will return 503")
	}

	srv, err := server.New(server.Config{
		Port:         cfg.Port,
		SecureCookie: cfg.CookieSecure,
	}, server.Deps{
		Store:     store,
		Sessions:  sessions,
		Tokens:    tokens,
		Passwords: auth.NewPasswordService(),
		GitHub:    github,
		Uploads:   uploads,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	// The server's Close also stops its scheduler and closes both stores.
	td.replace("server", srv.Close)

	if cfg.Organizer.Email != "" {
		if err := srv.SeedOrganizer(ctx, cfg.Organizer.Email, cfg.Organizer.FullName, cfg.Organizer.PasswordHash); err != nil {
			return fmt.Errorf("seeding organizer: %w", err)
		}
		logger.Info("organizer account ready", slog.String("email", cfg.Organizer.Email))
	}

	// Start blocks until SIGINT/SIGTERM and closes the backends on the way out.
	td.release()
	return srv.Start()
}

// teardown closes resources newest first. After release it does nothing.
type teardown struct {
	logger  *slog.Logger
	names   []string
	closers []func() error
}

func (t *teardown) add(name string, fn func() error) {
	t.names = append(t.names, name)
	t.closers = append(t.closers, fn)
}

// replace drops everything registered so far in favour of fn, which owns it now.
func (t *teardown) replace(name string, fn func() error) {
	t.names, t.closers = nil, nil
	t.add(name, fn)
}

func (t *teardown) release() { t.names, t.closers = nil, nil }

func (t *teardown) run() {
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](); err != nil {
			t.logger.Warn("closing "+t.names[i], slog.String("error", err.Error()))
		}
	}
	t.release()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return db, nil

	case config.BackendSupabase:
		db, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, fmt.Errorf("opening supabase: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			return nil, fmt.Errorf("reaching supabase: %w", err)
		}
		return db, nil

	default:
		// Like `mkdir -p`: the data directory may not exist on a fresh checkout.
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return db, nil
	}
}
