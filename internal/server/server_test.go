package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitk-robotics/club-portal/internal/auth"
	"github.com/hitk-robotics/club-portal/internal/game"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
	"github.com/hitk-robotics/club-portal/internal/repository/sqlite"
	"github.com/hitk-robotics/club-portal/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	tokens, err := auth.NewTokenService("server-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	srv, err := New(Config{Port: 0}, Deps{
		Store:     db,
		Sessions:  session.NewMemoryStore(),
		Tokens:    tokens,
		Passwords: auth.NewPasswordServiceWithCost(bcrypt.MinCost),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

// call sends a JSON request with an optional bearer token.
func call(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeAs[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

type loginResult struct {
	User  struct{ ID string } `json:"user"`
	Token string              `json:"token"`
}

func signUp(t *testing.T, srv *Server, email string) loginResult {
	t.Helper()
	rr := call(t, srv, http.MethodPost, "/auth/signup", "", map[string]string{"email": email, "password": "club password"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeAs[loginResult](t, rr)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rr := call(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))
}

func TestMemberRoutesRequireLogin(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/api/me", "/api/me/scores"} {
		rr := call(t, srv, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
	rr := call(t, srv, http.MethodPost, "/api/games/memory-matrix/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	rr = call(t, srv, http.MethodGet, "/api/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPlayerJourney(t *testing.T) {
	srv := newTestServer(t)
	ada := signUp(t, srv, "ada@club.org")

	// No scores yet: stats are absent, boards are empty.
	rr := call(t, srv, http.MethodGet, "/api/users/"+ada.User.ID+"/stats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, "a member with no games still has a profile")
	assert.Zero(t, decodeAs[model.UserStats](t, rr).TotalGamesPlayed)

	rr = call(t, srv, http.MethodGet, "/api/games/memory-matrix/stats?userId="+ada.User.ID, "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"no stats available"}`, rr.Body.String())

	rr = call(t, srv, http.MethodGet, "/api/leaderboard/weekly/memory-matrix", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	// Play three rounds of memory-matrix: 100, 150, 50.
	for _, score := range []int{100, 150, 50} {
		rr = call(t, srv, http.MethodPost, "/api/games/memory-matrix/sessions", ada.Token, nil)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		round := decodeAs[game.Session](t, rr)
		assert.Equal(t, game.StateShowing, round.State)

		rr = call(t, srv, http.MethodPost, "/api/game-sessions/"+round.ID+"/advance", ada.Token, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		rr = call(t, srv, http.MethodPost, "/api/game-sessions/"+round.ID+"/finish", ada.Token, map[string]int{"score": score})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, game.StateGameOver, decodeAs[game.Session](t, rr).State)
	}

	rr = call(t, srv, http.MethodGet, "/api/games/memory-matrix/stats?userId="+ada.User.ID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	gs := decodeAs[model.GameStats](t, rr)
	assert.Equal(t, 3, gs.TotalPlays)
	assert.Equal(t, 150, gs.HighestScore)
	assert.Equal(t, 100, gs.AverageScore)
	assert.Equal(t, 50, gs.LowestScore)

	rr = call(t, srv, http.MethodGet, "/api/users/"+ada.User.ID+"/stats", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	us := decodeAs[model.UserStats](t, rr)
	assert.Equal(t, 3, us.TotalGamesPlayed)
	assert.Equal(t, 150, us.HighestScore)
	assert.Equal(t, 2, us.Achievements, "First Steps and Memory Master")

	rr = call(t, srv, http.MethodGet, "/api/leaderboard/weekly/memory-matrix", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	weekly := decodeAs[[]model.WeeklyEntry](t, rr)
	require.Len(t, weekly, 3)
	assert.Equal(t, 150, weekly[0].Score)
	assert.Equal(t, "ada@club.org", weekly[0].Email)

	rr = call(t, srv, http.MethodGet, "/api/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	board := decodeAs[[]model.UserStats](t, rr)
	require.Len(t, board, 1)
	assert.Equal(t, ada.User.ID, board[0].UserID)

	rr = call(t, srv, http.MethodGet, "/api/me/scores", ada.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeAs[[]model.ScoreRecord](t, rr), 3)

	rr = call(t, srv, http.MethodPost, "/auth/logout", ada.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = call(t, srv, http.MethodGet, "/api/me", ada.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestOrganizerJourney(t *testing.T) {
	srv := newTestServer(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("organizer-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, srv.SeedOrganizer(t.Context(), "lead@club.org", "Lead", string(hash)))

	member := signUp(t, srv, "ada@club.org")
	rr := call(t, srv, http.MethodGet, "/api/admin/dashboard", member.Token, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code, "members cannot reach admin routes")

	rr = call(t, srv, http.MethodPost, "/organizer/login", "", map[string]string{"email": "lead@club.org", "password": "organizer-pass"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	org := decodeAs[loginResult](t, rr)

	rr = call(t, srv, http.MethodPost, "/api/admin/events", org.Token, map[string]any{
		"title": "Robo Soccer", "eventDate": "2026-12-05T09:00:00Z", "eventType": "Competition",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	event := decodeAs[model.Event](t, rr)

	rr = call(t, srv, http.MethodGet, "/api/events/robo-soccer", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = call(t, srv, http.MethodPost, "/api/events/"+event.ID+"/register", member.Token, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = call(t, srv, http.MethodPost, "/api/admin/users/"+member.User.ID+"/achievements", org.Token, map[string]string{"name": "Legend"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = call(t, srv, http.MethodGet, "/api/users/"+member.User.ID+"/achievements", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeAs[[]model.UnlockedAchievement](t, rr), 2, "Event Explorer and Legend")

	rr = call(t, srv, http.MethodGet, "/api/admin/dashboard", org.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	counts := decodeAs[model.DashboardCounts](t, rr)
	assert.Equal(t, 1, counts.Events)
	assert.Equal(t, 1, counts.Registrations)

	rr = call(t, srv, http.MethodPost, "/api/admin/uploads", org.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "not a multipart form")

	rr = call(t, srv, http.MethodPost, "/organizer/logout", org.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = call(t, srv, http.MethodGet, "/api/admin/dashboard", org.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSchedulerPurgesMemorySessions(t *testing.T) {
	srv := newTestServer(t)
	assert.ElementsMatch(t, []string{"sweep-game-sessions", "purge-login-sessions"}, srv.scheduler.Jobs())
}

type countingStore struct {
	repository.Store
	closed int
}

func (c *countingStore) Close() error {
	c.closed++
	return c.Store.Close()
}

func TestCloseWithoutStart(t *testing.T) {
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	store := &countingStore{Store: db}
	tokens, err := auth.NewTokenService("server-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	srv, err := New(Config{Port: 0}, Deps{
		Store:     store,
		Sessions:  session.NewMemoryStore(),
		Tokens:    tokens,
		Passwords: auth.NewPasswordServiceWithCost(bcrypt.MinCost),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	require.NoError(t, srv.Close())
	assert.Equal(t, 1, store.closed)
	assert.NoError(t, srv.scheduler.Shutdown(), "scheduler already stopped")
}
