package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

func TestUnlock_Idempotent(t *testing.T) {
	db := newTestStore(t)
	svc := NewAchievementService(db, db, testLogger())
	ctx := context.Background()

	unlocked, err := svc.Unlock(ctx, "u1", model.AchievementFirstSteps)
	require.NoError(t, err)
	assert.True(t, unlocked)

	unlocked, err = svc.Unlock(ctx, "u1", model.AchievementFirstSteps)
	require.NoError(t, err, "a second unlock is absorbed")
	assert.False(t, unlocked)

	list, err := svc.ForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.AchievementFirstSteps, list[0].Name)
}

func TestUnlock_Errors(t *testing.T) {
	db := newTestStore(t)
	svc := NewAchievementService(db, db, testLogger())
	ctx := context.Background()

	_, err := svc.Unlock(ctx, "u1", "Grandmaster")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Unlock(ctx, "", model.AchievementFirstSteps)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Unlock(ctx, "u1", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGrant(t *testing.T) {
	db := newTestStore(t)
	svc := NewAchievementService(db, db, testLogger())
	ctx := context.Background()
	u := createUser(t, db, "legend@club.org")

	unlocked, err := svc.Grant(ctx, u.ID, "Legend")
	require.NoError(t, err)
	assert.True(t, unlocked)

	_, err = svc.Grant(ctx, "missing-user", "Legend")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCatalog(t *testing.T) {
	db := newTestStore(t)
	list, err := NewAchievementService(db, db, testLogger()).Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, len(model.DefaultAchievements))
}
