package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

// newIntegrationDB connects to TEST_DATABASE_URL. Rows are keyed by fresh ids and game
// names so runs against a shared database do not see each other.
func newIntegrationDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newMember(t *testing.T, db *DB) *model.User {
	t.Helper()
	u := &model.User{Email: uuid.NewString() + "@club.test"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func TestIntegration_TopScoresWindowAndOrder(t *testing.T) {
	db := newIntegrationDB(t)
	ctx := context.Background()
	game := "memory-matrix-" + uuid.NewString()[:8]
	u1, u2 := newMember(t, db), newMember(t, db)

	since := time.Now().UTC().Add(-7 * 24 * time.Hour).Truncate(time.Millisecond)
	insert := func(userID string, score int, at time.Time) *model.ScoreRecord {
		rec := &model.ScoreRecord{UserID: userID, GameName: game, Score: score, CompletedAt: at}
		require.NoError(t, db.InsertScore(ctx, rec))
		return rec
	}
	insert(u1.ID, 500, since.Add(-time.Hour)) // outside the window
	late := insert(u1.ID, 150, since.Add(3*time.Hour))
	early := insert(u2.ID, 150, since.Add(time.Hour))
	insert(u2.ID, 90, since.Add(2*time.Hour))

	top, err := db.TopScores(ctx, game, since, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, []string{early.ID, late.ID}, []string{top[0].ID, top[1].ID})

	all, err := db.ListScores(ctx, repository.ScoreFilter{UserID: u1.ID, GameName: game, Since: since})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, late.ID, all[0].ID)
}

func TestIntegration_RepeatedUnlockIsConflict(t *testing.T) {
	db := newIntegrationDB(t)
	ctx := context.Background()
	u := newMember(t, db)

	a, err := db.GetAchievementByName(ctx, model.AchievementFirstSteps)
	require.NoError(t, err)

	require.NoError(t, db.InsertUserAchievement(ctx, &model.UserAchievement{UserID: u.ID, AchievementID: a.ID}))
	err = db.InsertUserAchievement(ctx, &model.UserAchievement{UserID: u.ID, AchievementID: a.ID})
	assert.True(t, errors.Is(err, apperror.ErrConflict), "got %v", err)

	counts, err := db.CountAchievementsByUsers(ctx, []string{u.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, counts[u.ID])
}
