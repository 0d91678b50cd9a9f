package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/repository/sqlite"
)

func newGameService(db *sqlite.DB) (*GameService, *AchievementService) {
	achievements := NewAchievementService(db, db, testLogger())
	return NewGameService(db, achievements, testLogger()), achievements
}

func TestSubmitScore(t *testing.T) {
	db := newTestStore(t)
	svc, achievements := newGameService(db)
	ctx := context.Background()

	taken := int64(1500)
	rec, err := svc.SubmitScore(ctx, "u1", "Memory Matrix", 160, &taken, " hard ")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "memory-matrix", rec.GameName)
	assert.Equal(t, "hard", rec.Difficulty)
	assert.WithinDuration(t, time.Now(), rec.CompletedAt, time.Minute)

	unlocked, err := achievements.ForUser(ctx, "u1")
	require.NoError(t, err)
	names := make([]string, 0, len(unlocked))
	for _, u := range unlocked {
		names = append(names, u.Name)
	}
	assert.ElementsMatch(t, []string{"First Steps", "Memory Master"}, names)

	// A second score does not duplicate the unlock.
	_, err = svc.SubmitScore(ctx, "u1", "pattern-pulse", 10, nil, "")
	require.NoError(t, err)
	unlocked, err = achievements.ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, unlocked, 2)
}

func TestSubmitScore_Validation(t *testing.T) {
	svc, _ := newGameService(newTestStore(t))
	neg := int64(-1)

	tests := []struct {
		name      string
		userID    string
		game      string
		score     int
		timeTaken *int64
		diff      string
	}{
		{"missing user", "", "memory-matrix", 1, nil, ""},
		{"unknown game", "u1", "tetris", 1, nil, ""},
		{"negative score", "u1", "memory-matrix", -5, nil, ""},
		{"negative time", "u1", "reaction-test", 5, &neg, ""},
		{"long difficulty", "u1", "memory-matrix", 5, nil, "impossibly-hard-nightmare-mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitScore(context.Background(), tt.userID, tt.game, tt.score, tt.timeTaken, tt.diff)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestSubmitScore_UnlockFailureDoesNotFail(t *testing.T) {
	db := newTestStore(t)
	broken := NewAchievementService(failingAchievements{db}, db, testLogger())
	svc := NewGameService(db, broken, testLogger())

	rec, err := svc.SubmitScore(context.Background(), "u1", "binary-breaker", 10, nil, "")
	require.NoError(t, err)

	scores, err := svc.UserScores(context.Background(), "u1", "")
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, rec.ID, scores[0].ID)
}

func TestUserScores(t *testing.T) {
	db := newTestStore(t)
	svc, _ := newGameService(db)
	now := time.Now()
	insertScore(t, db, "u1", "memory-matrix", 40, now)
	insertScore(t, db, "u1", "memory-matrix", 90, now)
	insertScore(t, db, "u1", "reaction-test", 60, now)
	insertScore(t, db, "u2", "memory-matrix", 100, now)

	all, err := svc.UserScores(context.Background(), "u1", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{90, 60, 40}, []int{all[0].Score, all[1].Score, all[2].Score})

	mm, err := svc.UserScores(context.Background(), "u1", "Memory Matrix")
	require.NoError(t, err)
	assert.Len(t, mm, 2)

	_, err = svc.UserScores(context.Background(), "u1", "tetris")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGameLeaderboard_BestPerUser(t *testing.T) {
	db := newTestStore(t)
	svc, _ := newGameService(db)
	now := time.Now()
	insertScore(t, db, "u1", "pattern-pulse", 40, now)
	insertScore(t, db, "u1", "pattern-pulse", 95, now)
	insertScore(t, db, "u2", "pattern-pulse", 70, now)
	insertScore(t, db, "u3", "memory-matrix", 200, now)

	board, err := svc.GameLeaderboard(context.Background(), "pattern-pulse", 0)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "u1", board[0].UserID)
	assert.Equal(t, 95, board[0].Score)
	assert.Equal(t, "u2", board[1].UserID)

	board, err = svc.GameLeaderboard(context.Background(), "pattern-pulse", 1)
	require.NoError(t, err)
	assert.Len(t, board, 1)
}
