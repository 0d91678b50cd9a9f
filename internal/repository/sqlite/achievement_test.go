package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

func TestMigrate_SeedsAchievements(t *testing.T) {
	db := newTestDB(t)

	got, err := db.ListAchievements(context.Background())
	if err != nil {
		t.Fatalf("ListAchievements() error = %v", err)
	}
	if len(got) != len(model.DefaultAchievements) {
		t.Errorf("ListAchievements() returned %d, want %d", len(got), len(model.DefaultAchievements))
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
	got, err := db.ListAchievements(context.Background())
	if err != nil {
		t.Fatalf("ListAchievements() error = %v", err)
	}
	if len(got) != len(model.DefaultAchievements) {
		t.Errorf("after re-migrate: %d achievements, want %d", len(got), len(model.DefaultAchievements))
	}
}

func TestGetAchievementByName(t *testing.T) {
	db := newTestDB(t)

	a, err := db.GetAchievementByName(context.Background(), model.AchievementFirstSteps)
	if err != nil {
		t.Fatalf("GetAchievementByName() error = %v", err)
	}
	if a.ID == "" || a.Name != model.AchievementFirstSteps {
		t.Errorf("GetAchievementByName() = %+v", a)
	}

	_, err = db.GetAchievementByName(context.Background(), "Nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown name error = %v, want ErrNotFound", err)
	}
}

func TestInsertUserAchievement_DuplicateIsConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a, err := db.GetAchievementByName(ctx, model.AchievementFirstSteps)
	if err != nil {
		t.Fatalf("GetAchievementByName() error = %v", err)
	}

	if err := db.InsertUserAchievement(ctx, &model.UserAchievement{UserID: "u1", AchievementID: a.ID}); err != nil {
		t.Fatalf("first InsertUserAchievement() error = %v", err)
	}
	err = db.InsertUserAchievement(ctx, &model.UserAchievement{UserID: "u1", AchievementID: a.ID})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second InsertUserAchievement() error = %v, want ErrConflict", err)
	}

	unlocked, err := db.ListUserAchievements(ctx, "u1")
	if err != nil {
		t.Fatalf("ListUserAchievements() error = %v", err)
	}
	if len(unlocked) != 1 {
		t.Fatalf("ListUserAchievements() returned %d rows, want 1", len(unlocked))
	}
	if unlocked[0].Name != model.AchievementFirstSteps {
		t.Errorf("Name = %q, want %q", unlocked[0].Name, model.AchievementFirstSteps)
	}
}

func TestCountAchievementsByUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	all, err := db.ListAchievements(ctx)
	if err != nil {
		t.Fatalf("ListAchievements() error = %v", err)
	}

	for _, a := range all[:2] {
		if err := db.InsertUserAchievement(ctx, &model.UserAchievement{UserID: "u1", AchievementID: a.ID}); err != nil {
			t.Fatalf("InsertUserAchievement() error = %v", err)
		}
	}
	if err := db.InsertUserAchievement(ctx, &model.UserAchievement{UserID: "u2", AchievementID: all[0].ID}); err != nil {
		t.Fatalf("InsertUserAchievement() error = %v", err)
	}

	counts, err := db.CountAchievementsByUsers(ctx, []string{"u1", "u2", "u3"})
	if err != nil {
		t.Fatalf("CountAchievementsByUsers() error = %v", err)
	}
	if counts["u1"] != 2 || counts["u2"] != 1 {
		t.Errorf("counts = %v, want u1:2 u2:1", counts)
	}
	if _, ok := counts["u3"]; ok {
		t.Error("u3 should be absent from the counts")
	}

	empty, err := db.CountAchievementsByUsers(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("CountAchievementsByUsers(nil) = %v, %v; want empty map", empty, err)
	}
}
