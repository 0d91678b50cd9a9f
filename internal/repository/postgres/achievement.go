package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

func (db *DB) ListAchievements(ctx context.Context) ([]model.Achievement, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, description, badge_icon, category FROM achievements ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing achievements: %w", err)
	}
	defer rows.Close()

	achievements := []model.Achievement{}
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.BadgeIcon, &a.Category); err != nil {
			return nil, fmt.Errorf("postgres: scanning achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

func (db *DB) GetAchievementByName(ctx context.Context, name string) (*model.Achievement, error) {
	var a model.Achievement
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, description, badge_icon, category FROM achievements WHERE name = $1`, name,
	).Scan(&a.ID, &a.Name, &a.Description, &a.BadgeIcon, &a.Category)
	if err != nil {
		return nil, notFoundOr(err, "achievement", name, "getting achievement "+name)
	}
	return &a, nil
}

func (db *DB) InsertUserAchievement(ctx context.Context, ua *model.UserAchievement) error {
	ua.ID = uuid.NewString()
	if ua.UnlockedAt.IsZero() {
		ua.UnlockedAt = nowUTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO user_achievements (id, user_id, achievement_id, unlocked_at) VALUES ($1, $2, $3, $4)`,
		ua.ID, ua.UserID, ua.AchievementID, ua.UnlockedAt,
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("user achievement", ua.UserID+"/"+ua.AchievementID)
	}
	if isForeignKeyViolation(err) {
		return apperror.NotFound("achievement", ua.AchievementID)
	}
	if err != nil {
		return fmt.Errorf("postgres: inserting user achievement: %w", err)
	}
	return nil
}

func (db *DB) ListUserAchievements(ctx context.Context, userID string) ([]model.UnlockedAchievement, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT ua.id, ua.achievement_id, ua.unlocked_at, a.name, a.description, a.badge_icon, a.category
		 FROM user_achievements ua
		 JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = $1
		 ORDER BY ua.unlocked_at DESC, ua.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing achievements of user %s: %w", userID, err)
	}
	defer rows.Close()

	unlocked := []model.UnlockedAchievement{}
	for rows.Next() {
		var u model.UnlockedAchievement
		if err := rows.Scan(&u.ID, &u.AchievementID, &u.UnlockedAt, &u.Name, &u.Description, &u.BadgeIcon, &u.Category); err != nil {
			return nil, fmt.Errorf("postgres: scanning user achievement: %w", err)
		}
		unlocked = append(unlocked, u)
	}
	return unlocked, rows.Err()
}

func (db *DB) CountAchievementsByUsers(ctx context.Context, userIDs []string) (map[string]int, error) {
	return db.countByUsers(ctx, "user_achievements", userIDs)
}
