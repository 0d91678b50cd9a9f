// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the composition root. main.go opens the backends (store, session
// store, object storage) and hands them over in Deps; New builds every service and
// handler on top of them and decides which middleware guards which route.
//
// DEPENDENCY INJECTION FLOW:
//
//	Deps.Store (repository.Store)
//	  → StatsService, AchievementService, GameService, ContentService, AuthService
//	  → game.Manager (rounds in progress, submits through GameService)
//	  → handlers → chi routes
//
// Keeping this out of main.go lets server_test.go drive the real router against an
// in-memory sqlite store.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hitk-robotics/club-portal/internal/auth"
	"github.com/hitk-robotics/club-portal/internal/game"
	"github.com/hitk-robotics/club-portal/internal/handler"
	"github.com/hitk-robotics/club-portal/internal/middleware"
	"github.com/hitk-robotics/club-portal/internal/repository"
	"github.com/hitk-robotics/club-portal/internal/scheduler"
	"github.com/hitk-robotics/club-portal/internal/service"
	"github.com/hitk-robotics/club-portal/internal/session"
	"github.com/hitk-robotics/club-portal/internal/storage"
)

// Config holds the settings the HTTP layer itself needs.
type Config struct {
	Port         int
	SecureCookie bool
}

// Deps are the backends the server runs on. The server owns them from New onwards and
// closes Store and Sessions when Start returns.
type Deps struct {
	Store     repository.Store
	Sessions  session.Store
	Tokens    *auth.TokenService
	Passwords *auth.PasswordService
	GitHub    *auth.GitHubProvider // nil disables GitHub login
	Uploads   *storage.ObjectStore // nil disables uploads (503)
}

// pinger is implemented by every store backend; the health check uses it when present.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router    *chi.Mux
	config    Config
	logger    *slog.Logger
	deps      Deps
	authSvc   *service.AuthService
	rounds    *game.Manager
	scheduler *scheduler.Scheduler
}

// New wires services and handlers onto deps and registers every route.
func New(cfg Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil || deps.Sessions == nil || deps.Tokens == nil || deps.Passwords == nil {
		return nil, errors.New("server: store, sessions, tokens and passwords are required")
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	// The in-memory session store needs its expired entries purged; Redis expires keys itself.
	purger, _ := deps.Sessions.(scheduler.SessionPurger)

	s.setupRoutes()

	sch, err := scheduler.New(s.rounds, purger, logger)
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}
	s.scheduler = sch

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SeedOrganizer creates or refreshes the organizer account from configuration.
func (s *Server) SeedOrganizer(ctx context.Context, email, fullName, passwordHash string) error {
	return s.authSvc.SeedOrganizer(ctx, email, fullName, passwordHash)
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	public     /healthz, /api/games…, /api/leaderboard…, /api/users/{id}/…,
//	           /api/achievements, /api/events…, /api/merchandise, /api/team,
//	           /api/notifications/subscribe, /auth/signup|login|github/*, /organizer/login
//	member     /auth/logout, /api/me…, /api/games/{game}/sessions,
//	           /api/game-sessions/{id}/…, /api/events/{id}/register
//	organizer  /organizer/logout, /api/admin/…
//
// MIDDLEWARE ORDER MATTERS:
// RequestID and RealIP run first so the access log can include them; Recoverer sits
// inside the logger so a panic is still logged as a 500.
func (s *Server) setupRoutes() {
	store := s.deps.Store

	achievementSvc := service.NewAchievementService(store, store, s.logger)
	statsSvc := service.NewStatsService(store, store, store, store, s.logger)
	gameSvc := service.NewGameService(store, achievementSvc, s.logger)
	contentSvc := service.NewContentService(store, achievementSvc, s.logger)
	s.authSvc = service.NewAuthService(store, store, s.deps.Sessions, s.deps.Tokens, s.deps.Passwords, s.logger)
	s.rounds = game.NewManager(gameSvc, s.logger)

	authHandler := handler.NewAuthHandler(s.authSvc, s.deps.GitHub, s.config.SecureCookie, s.logger)
	statsHandler := handler.NewStatsHandler(statsSvc, s.logger)
	gameHandler := handler.NewGameHandler(gameSvc, achievementSvc, s.rounds, s.logger)
	contentHandler := handler.NewContentHandler(contentSvc, s.logger)
	adminHandler := handler.NewAdminHandler(contentSvc, achievementSvc, s.deps.Uploads, s.logger)

	requireAuth := auth.RequireAuth(s.deps.Tokens, s.deps.Sessions)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)

	// === Auth ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignUp)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.With(requireAuth).Post("/logout", authHandler.HandleLogout)
	})
	s.router.Route("/organizer", func(r chi.Router) {
		r.Post("/login", authHandler.HandleOrganizerLogin)
		r.With(requireAuth, auth.RequireRole(auth.RoleOrganizer)).Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		// === Public ===
		r.Get("/games", gameHandler.HandleListGames)
		r.Get("/games/{game}/stats", statsHandler.HandleGameStats)
		r.Get("/games/{game}/leaderboard", gameHandler.HandleGameLeaderboard)
		r.Get("/leaderboard", statsHandler.HandleLeaderboard)
		r.Get("/leaderboard/weekly/{game}", statsHandler.HandleWeeklyLeaderboard)
		r.Get("/users/{id}/stats", statsHandler.HandleUserStats)
		r.Get("/users/{id}/games", statsHandler.HandleUserGames)
		r.Get("/users/{id}/achievements", gameHandler.HandleUserAchievements)
		r.Get("/achievements", gameHandler.HandleAchievementCatalog)
		r.Get("/events", contentHandler.HandleListEvents)
		r.Get("/events/{slug}", contentHandler.HandleGetEvent)
		r.Get("/merchandise", contentHandler.HandleListMerchandise)
		r.Get("/team", contentHandler.HandleListTeam)
		r.Post("/notifications/subscribe", contentHandler.HandleSubscribe)

		// === Members ===
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(auth.RequireRole(auth.RoleMember))

			r.Get("/me", authHandler.HandleMe)
			r.Post("/me/password", authHandler.HandleChangePassword)
			r.Get("/me/scores", gameHandler.HandleMyScores)

			r.Post("/games/{game}/sessions", gameHandler.HandleStartRound)
			r.Post("/game-sessions/{id}/advance", gameHandler.HandleAdvanceRound)
			r.Post("/game-sessions/{id}/finish", gameHandler.HandleFinishRound)
			r.Post("/game-sessions/{id}/reset", gameHandler.HandleResetRound)

			r.Post("/events/{id}/register", contentHandler.HandleRegister)
		})

		// === Organizers ===
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(auth.RequireRole(auth.RoleOrganizer))

			r.Get("/dashboard", adminHandler.HandleDashboard)

			r.Get("/events", adminHandler.HandleListEvents)
			r.Post("/events", adminHandler.HandleCreateEvent)
			r.Put("/events/{id}", adminHandler.HandleUpdateEvent)
			r.Delete("/events/{id}", adminHandler.HandleDeleteEvent)

			r.Get("/merchandise", adminHandler.HandleListMerchandise)
			r.Post("/merchandise", adminHandler.HandleCreateMerchandise)
			r.Put("/merchandise/{id}", adminHandler.HandleUpdateMerchandise)
			r.Delete("/merchandise/{id}", adminHandler.HandleDeleteMerchandise)

			r.Get("/team", adminHandler.HandleListTeam)
			r.Post("/team", adminHandler.HandleCreateTeamMember)
			r.Put("/team/{id}", adminHandler.HandleUpdateTeamMember)
			r.Delete("/team/{id}", adminHandler.HandleDeleteTeamMember)

			r.Get("/subscriptions", adminHandler.HandleListSubscriptions)
			r.Post("/users/{id}/achievements", adminHandler.HandleGrantAchievement)
			r.Post("/uploads", adminHandler.HandleUpload)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if p, ok := s.deps.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			s.logger.Error("health check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections and wait up to 30s for in-flight requests
//  2. Stop the scheduler
//  3. Close the session store and the database
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Warn("closing backends", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.scheduler.Start()
	s.logger.Info("scheduler started", slog.Any("jobs", s.scheduler.Jobs()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close stops the scheduler and closes the session store and the data store.
// Start calls it on the way out; callers only need it when Start never ran.
func (s *Server) Close() error {
	var errs []error
	if err := s.scheduler.Shutdown(); err != nil {
		errs = append(errs, fmt.Errorf("stopping scheduler: %w", err))
	}
	if err := s.deps.Sessions.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing session store: %w", err))
	}
	if err := s.deps.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	return errors.Join(errs...)
}
