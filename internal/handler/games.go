package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitk-robotics/club-portal/internal/auth"
	"github.com/hitk-robotics/club-portal/internal/game"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/service"
)

// GameHandler serves the arcade: the catalog, score lists, achievements and the
// per-round state machine.
//
// A score only enters the store through a round: start → (advance) → finish. The browser
// never posts a bare score.
type GameHandler struct {
	games        *service.GameService
	achievements *service.AchievementService
	rounds       *game.Manager
	logger       *slog.Logger
}

func NewGameHandler(games *service.GameService, achievements *service.AchievementService, rounds *game.Manager, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		games:        games,
		achievements: achievements,
		rounds:       rounds,
		logger:       logger,
	}
}

// HandleListGames: GET /api/games
func (h *GameHandler) HandleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Games)
}

// HandleGameLeaderboard: GET /api/games/{game}/leaderboard?limit=
func (h *GameHandler) HandleGameLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.games.GameLeaderboard(r.Context(), chi.URLParam(r, "game"), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// HandleMyScores: GET /api/me/scores?game= (RequireAuth)
func (h *GameHandler) HandleMyScores(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	scores, err := h.games.UserScores(r.Context(), userID, r.URL.Query().Get("game"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

// HandleAchievementCatalog: GET /api/achievements
func (h *GameHandler) HandleAchievementCatalog(w http.ResponseWriter, r *http.Request) {
	list, err := h.achievements.Catalog(r.Context())
	if err != nil {
		h.logger.Error("listing achievements", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleUserAchievements: GET /api/users/{id}/achievements
func (h *GameHandler) HandleUserAchievements(w http.ResponseWriter, r *http.Request) {
	list, err := h.achievements.ForUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type startRoundRequest struct {
	Difficulty string `json:"difficulty"`
}

// HandleStartRound opens a round. The body is optional.
//
// HTTP: POST /api/games/{game}/sessions (RequireAuth)
func (h *GameHandler) HandleStartRound(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req startRoundRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	round, err := h.rounds.Start(userID, chi.URLParam(r, "game"), req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

// HandleAdvanceRound ends the reveal phase.
//
// HTTP: POST /api/game-sessions/{id}/advance (RequireAuth)
func (h *GameHandler) HandleAdvanceRound(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	round, err := h.rounds.Advance(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

type finishRoundRequest struct {
	Score     *int   `json:"score"`
	TimeTaken *int64 `json:"timeTaken"`
}

// HandleFinishRound records the round's score.
//
// HTTP: POST /api/game-sessions/{id}/finish (RequireAuth)
// REQUEST BODY: {"score": 120, "timeTaken": 5400}
//
// A second finish of the same round is a 409; the score is stored once.
func (h *GameHandler) HandleFinishRound(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req finishRoundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Score == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "score is required", Field: "score"})
		return
	}

	round, err := h.rounds.Finish(r.Context(), userID, chi.URLParam(r, "id"), *req.Score, req.TimeTaken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// HandleResetRound starts the next round of a finished one ("play again").
//
// HTTP: POST /api/game-sessions/{id}/reset (RequireAuth)
func (h *GameHandler) HandleResetRound(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	round, err := h.rounds.Reset(userID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}
