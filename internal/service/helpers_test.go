package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
	"github.com/hitk-robotics/club-portal/internal/repository/sqlite"
)

// Services are tested against the real sqlite store in memory. Failures are injected by
// wrapping it in the fakes below, which override one method and forward the rest.

var errStoreDown = errors.New("store down")

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createUser(t *testing.T, db *sqlite.DB, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func insertScore(t *testing.T, db *sqlite.DB, userID, game string, score int, at time.Time) *model.ScoreRecord {
	t.Helper()
	rec := &model.ScoreRecord{UserID: userID, GameName: game, Score: score, CompletedAt: at}
	require.NoError(t, db.InsertScore(context.Background(), rec))
	return rec
}

type failingScores struct {
	repository.ScoreRepository
}

func (failingScores) ListScores(context.Context, repository.ScoreFilter) ([]model.ScoreRecord, error) {
	return nil, errStoreDown
}

func (failingScores) TopScores(context.Context, string, time.Time, int) ([]model.ScoreRecord, error) {
	return nil, errStoreDown
}

type failingUsers struct {
	repository.UserRepository
}

func (failingUsers) GetUserByID(context.Context, string) (*model.User, error) {
	return nil, errStoreDown
}

func (failingUsers) GetUsersByIDs(context.Context, []string) (map[string]model.User, error) {
	return nil, errStoreDown
}

type failingAchievements struct {
	repository.AchievementRepository
}

func (failingAchievements) InsertUserAchievement(context.Context, *model.UserAchievement) error {
	return errStoreDown
}

// gameFilterFailing fails only for one game, to check that ProfileGameStats isolates it.
type gameFilterFailing struct {
	repository.ScoreRepository
	game string
}

func (f gameFilterFailing) ListScores(ctx context.Context, filter repository.ScoreFilter) ([]model.ScoreRecord, error) {
	if filter.GameName == f.game {
		return nil, errStoreDown
	}
	return f.ScoreRepository.ListScores(ctx, filter)
}
