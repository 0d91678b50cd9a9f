package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

// restStub answers PostgREST requests with a canned status and body per table and
// remembers the query each table was asked with.
type restStub struct {
	mu      sync.Mutex
	bodies  map[string]string
	status  map[string]int
	queries map[string]url.Values
	methods map[string]string
}

func newRestStub(t *testing.T) (*restStub, *DB) {
	t.Helper()
	stub := &restStub{
		bodies:  map[string]string{},
		status:  map[string]int{},
		queries: map[string]url.Values{},
		methods: map[string]string{},
	}
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	db, err := New(srv.URL, "service-role-key")
	require.NoError(t, err)
	return stub, db
}

func (s *restStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	table := path.Base(r.URL.Path)

	s.mu.Lock()
	s.queries[table] = r.URL.Query()
	s.methods[table] = r.Method
	body, ok := s.bodies[table]
	status := s.status[table]
	s.mu.Unlock()

	if !ok {
		body = "[]"
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (s *restStub) respond(table string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[table] = status
	s.bodies[table] = body
}

func (s *restStub) query(table string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[table]
}

func (s *restStub) method(table string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.methods[table]
}

func TestTopScores_FiltersWindowAndSortsInGo(t *testing.T) {
	stub, db := newRestStub(t)
	stub.respond(tableScores, http.StatusOK, `[
		{"id":"a","user_id":"u1","game_name":"memory-matrix","score":90,"completed_at":"2025-03-03T10:00:00Z"},
		{"id":"b","user_id":"u2","game_name":"memory-matrix","score":150,"completed_at":"2025-03-04T10:00:00Z"},
		{"id":"c","user_id":"u3","game_name":"memory-matrix","score":150,"completed_at":"2025-03-02T10:00:00Z"},
		{"id":"d","user_id":"u4","game_name":"memory-matrix","score":40,"completed_at":"2025-03-05T10:00:00Z"}
	]`)

	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	top, err := db.TopScores(context.Background(), "memory-matrix", since, 3)
	require.NoError(t, err)

	q := stub.query(tableScores)
	assert.Equal(t, "eq.memory-matrix", q.Get("game_name"))
	assert.Equal(t, "gte."+timestamp(since), q.Get("completed_at"), "the weekly window is pushed to PostgREST")

	require.Len(t, top, 3)
	// equal scores: the earlier completion ranks first
	assert.Equal(t, []string{"c", "b", "a"}, []string{top[0].ID, top[1].ID, top[2].ID})
}

func TestTopScores_ZeroLimit(t *testing.T) {
	stub, db := newRestStub(t)
	stub.respond(tableScores, http.StatusOK, `[{"id":"a","user_id":"u1","game_name":"memory-matrix","score":90,"completed_at":"2025-03-03T10:00:00Z"}]`)

	top, err := db.TopScores(context.Background(), "memory-matrix", time.Time{}, 0)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestListScores_AppliesRemainingFiltersInGo(t *testing.T) {
	stub, db := newRestStub(t)
	stub.respond(tableScores, http.StatusOK, `[
		{"id":"a","user_id":"u1","game_name":"memory-matrix","score":90,"completed_at":"2025-03-03T10:00:00Z"},
		{"id":"b","user_id":"u1","game_name":"circuit-sprint","score":70,"completed_at":"2025-03-04T10:00:00Z"},
		{"id":"c","user_id":"u1","game_name":"memory-matrix","score":60,"completed_at":"2025-02-20T10:00:00Z"}
	]`)

	records, err := db.ListScores(context.Background(), repository.ScoreFilter{
		UserID:   "u1",
		GameName: "memory-matrix",
		Since:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "eq.u1", stub.query(tableScores).Get("user_id"))
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].ID)
}

func TestInsertUserAchievement_DuplicateIsConflict(t *testing.T) {
	stub, db := newRestStub(t)
	stub.respond(tableUserAchievements, http.StatusConflict,
		`{"code":"23505","details":"Key (user_id, achievement_id) already exists.","hint":null,
		"message":"duplicate key value violates unique constraint \"user_achievements_user_id_achievement_id_key\""}`)

	err := db.InsertUserAchievement(context.Background(), &model.UserAchievement{UserID: "u1", AchievementID: "ach-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)
	assert.Equal(t, http.MethodPost, stub.method(tableUserAchievements))
}

func TestInsertUserAchievement_Created(t *testing.T) {
	stub, db := newRestStub(t)
	stub.respond(tableUserAchievements, http.StatusCreated,
		`[{"id":"x","user_id":"u1","achievement_id":"ach-1","unlocked_at":"2025-03-03T10:00:00Z"}]`)

	ua := &model.UserAchievement{UserID: "u1", AchievementID: "ach-1"}
	require.NoError(t, db.InsertUserAchievement(context.Background(), ua))
	assert.NotEmpty(t, ua.ID)
	assert.False(t, ua.UnlockedAt.IsZero())
}

func TestCountAchievementsByUsers(t *testing.T) {
	stub, db := newRestStub(t)
	stub.respond(tableUserAchievements, http.StatusOK, `[{"user_id":"u1"},{"user_id":"u2"},{"user_id":"u1"}]`)

	counts, err := db.CountAchievementsByUsers(context.Background(), []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"u1": 2, "u2": 1}, counts)
	assert.Equal(t, `in.("u1","u2","u3")`, stub.query(tableUserAchievements).Get("user_id"))

	none, err := db.CountAchievementsByUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRestErrorIsWrapped(t *testing.T) {
	stub, db := newRestStub(t)
	stub.respond(tableScores, http.StatusInternalServerError, `{"code":"XX000","message":"internal error"}`)

	_, err := db.TopScores(context.Background(), "memory-matrix", time.Time{}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supabase: listing top scores of memory-matrix")
	assert.False(t, errors.Is(err, apperror.ErrConflict))
}
