package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

// AchievementService unlocks badges from the static catalog.
type AchievementService struct {
	achievements repository.AchievementRepository
	users        repository.UserRepository
	logger       *slog.Logger
}

func NewAchievementService(achievements repository.AchievementRepository, users repository.UserRepository, logger *slog.Logger) *AchievementService {
	return &AchievementService{
		achievements: achievements,
		users:        users,
		logger:       logger,
	}
}

// Unlock records that userID earned the achievement called name. It is idempotent:
// unlocking twice is not an error, it just reports unlocked=false the second time.
// An unknown achievement name is apperror.ErrNotFound.
func (s *AchievementService) Unlock(ctx context.Context, userID, name string) (bool, error) {
	if userID == "" {
		return false, apperror.ValidationFailed("userId", "user id is required")
	}
	if name == "" {
		return false, apperror.ValidationFailed("achievement", "achievement name is required")
	}

	achievement, err := s.achievements.GetAchievementByName(ctx, name)
	if err != nil {
		return false, fmt.Errorf("service/achievement: looking up %q: %w", name, err)
	}

	err = s.achievements.InsertUserAchievement(ctx, &model.UserAchievement{
		UserID:        userID,
		AchievementID: achievement.ID,
		UnlockedAt:    nowUTC(),
	})
	if apperror.IsConflict(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("service/achievement: unlocking %q for %s: %w", name, userID, err)
	}

	s.logger.Info("achievement unlocked", slog.String("userID", userID), slog.String("achievement", name))
	return true, nil
}

// Grant is the organizer path to Unlock; it refuses members that do not exist.
func (s *AchievementService) Grant(ctx context.Context, userID, name string) (bool, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return false, fmt.Errorf("service/achievement: granting %q: %w", name, err)
	}
	return s.Unlock(ctx, userID, name)
}

func (s *AchievementService) Catalog(ctx context.Context) ([]model.Achievement, error) {
	list, err := s.achievements.ListAchievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/achievement: listing catalog: %w", err)
	}
	return list, nil
}

// ForUser lists a member's unlocked achievements, newest first.
func (s *AchievementService) ForUser(ctx context.Context, userID string) ([]model.UnlockedAchievement, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}
	list, err := s.achievements.ListUserAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/achievement: listing for %s: %w", userID, err)
	}
	return list, nil
}
