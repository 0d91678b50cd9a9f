package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitk-robotics/club-portal/internal/gamification"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/service"
)

// StatsHandler serves the profile and leaderboard read paths. None of them surface a
// store error: missing stats are a 404 "no stats available", boards are at worst [].
type StatsHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

func NewStatsHandler(stats *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

type userStatsResponse struct {
	*model.UserStats
	Progress gamification.RankProgress `json:"progress"`
}

// HandleUserStats: GET /api/users/{id}/stats
func (h *StatsHandler) HandleUserStats(w http.ResponseWriter, r *http.Request) {
	stats := h.stats.UserStats(r.Context(), chi.URLParam(r, "id"))
	if stats == nil {
		writeNoStats(w)
		return
	}
	writeJSON(w, http.StatusOK, userStatsResponse{
		UserStats: stats,
		Progress:  gamification.ProgressFor(stats.TotalXP),
	})
}

// HandleUserGames: GET /api/users/{id}/games
// One entry per catalog game; "stats" is null for games the member has not played.
func (h *StatsHandler) HandleUserGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.ProfileGameStats(r.Context(), chi.URLParam(r, "id")))
}

// HandleGameStats: GET /api/games/{game}/stats?userId=
func (h *StatsHandler) HandleGameStats(w http.ResponseWriter, r *http.Request) {
	stats := h.stats.GameStats(r.Context(), chi.URLParam(r, "game"), r.URL.Query().Get("userId"))
	if stats == nil {
		writeNoStats(w)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleWeeklyLeaderboard: GET /api/leaderboard/weekly/{game}
func (h *StatsHandler) HandleWeeklyLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.WeeklyLeaderboard(r.Context(), chi.URLParam(r, "game")))
}

// HandleLeaderboard: GET /api/leaderboard
func (h *StatsHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.AllUsersLeaderboard(r.Context()))
}
