package sqlite

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

func (db *DB) ListAchievements(ctx context.Context) ([]model.Achievement, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, description, badge_icon, category FROM achievements ORDER BY category, name`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing achievements: %w", err)
	}
	defer rows.Close()

	achievements := []model.Achievement{}
	for rows.Next() {
		var a model.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.BadgeIcon, &a.Category); err != nil {
			return nil, fmt.Errorf("sqlite: scanning achievement: %w", err)
		}
		achievements = append(achievements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating achievements: %w", err)
	}
	return achievements, nil
}

func (db *DB) GetAchievementByName(ctx context.Context, name string) (*model.Achievement, error) {
	var a model.Achievement
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, badge_icon, category FROM achievements WHERE name = ?`, name,
	).Scan(&a.ID, &a.Name, &a.Description, &a.BadgeIcon, &a.Category)
	if err != nil {
		return nil, notFoundOr(err, "achievement", name, "getting achievement "+name)
	}
	return &a, nil
}

// InsertUserAchievement records an unlock. A second unlock of the same pair violates the
// UNIQUE (user_id, achievement_id) constraint and comes back as apperror.ErrConflict.
func (db *DB) InsertUserAchievement(ctx context.Context, ua *model.UserAchievement) error {
	ua.ID = xid.New().String()
	if ua.UnlockedAt.IsZero() {
		ua.UnlockedAt = nowUTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_achievements (id, user_id, achievement_id, unlocked_at) VALUES (?, ?, ?, ?)`,
		ua.ID, ua.UserID, ua.AchievementID, ua.UnlockedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("user achievement", ua.UserID+"/"+ua.AchievementID)
	}
	if err != nil {
		return fmt.Errorf("sqlite: inserting user achievement: %w", err)
	}
	return nil
}

// ListUserAchievements joins the unlocks with the catalog, most recent first.
func (db *DB) ListUserAchievements(ctx context.Context, userID string) ([]model.UnlockedAchievement, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT ua.id, ua.achievement_id, ua.unlocked_at, a.name, a.description, a.badge_icon, a.category
		 FROM user_achievements ua
		 JOIN achievements a ON a.id = ua.achievement_id
		 WHERE ua.user_id = ?
		 ORDER BY ua.unlocked_at DESC, ua.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing achievements of user %s: %w", userID, err)
	}
	defer rows.Close()

	unlocked := []model.UnlockedAchievement{}
	for rows.Next() {
		var u model.UnlockedAchievement
		if err := rows.Scan(&u.ID, &u.AchievementID, &u.UnlockedAt, &u.Name, &u.Description, &u.BadgeIcon, &u.Category); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user achievement: %w", err)
		}
		unlocked = append(unlocked, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user achievements: %w", err)
	}
	return unlocked, nil
}

func (db *DB) CountAchievementsByUsers(ctx context.Context, userIDs []string) (map[string]int, error) {
	return db.countByUsers(ctx, "user_achievements", userIDs)
}
