package supabase

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

func (db *DB) ListAchievements(ctx context.Context) ([]model.Achievement, error) {
	var rows []achievementRow
	if err := db.client.DB.From(tableAchievements).Select("*").Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: listing achievements: %w", err)
	}

	achievements := make([]model.Achievement, len(rows))
	for i, r := range rows {
		achievements[i] = r.toModel()
	}
	sort.SliceStable(achievements, func(i, j int) bool {
		if achievements[i].Category != achievements[j].Category {
			return achievements[i].Category < achievements[j].Category
		}
		return achievements[i].Name < achievements[j].Name
	})
	return achievements, nil
}

func (db *DB) GetAchievementByName(ctx context.Context, name string) (*model.Achievement, error) {
	var rows []achievementRow
	if err := db.client.DB.From(tableAchievements).Select("*").Eq("name", name).Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: getting achievement %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, notFound("achievement", name)
	}
	a := rows[0].toModel()
	return &a, nil
}

// InsertUserAchievement maps the 23505 from a repeated unlock to apperror.ErrConflict.
func (db *DB) InsertUserAchievement(ctx context.Context, ua *model.UserAchievement) error {
	ua.ID = uuid.NewString()
	if ua.UnlockedAt.IsZero() {
		ua.UnlockedAt = nowUTC()
	}

	row := userAchievementRow{ID: ua.ID, UserID: ua.UserID, AchievementID: ua.AchievementID, UnlockedAt: ua.UnlockedAt}
	var inserted []userAchievementRow
	err := db.client.DB.From(tableUserAchievements).Insert(row).Execute(&inserted)
	if isUniqueViolation(err) {
		return apperror.Conflict("user achievement", ua.UserID+"/"+ua.AchievementID)
	}
	if isForeignKeyViolation(err) {
		return notFound("achievement", ua.AchievementID)
	}
	if err != nil {
		return fmt.Errorf("supabase: inserting user achievement: %w", err)
	}
	return nil
}

// ListUserAchievements joins in Go: one query for the unlocks, one for their catalog rows.
func (db *DB) ListUserAchievements(ctx context.Context, userID string) ([]model.UnlockedAchievement, error) {
	var unlocks []userAchievementRow
	if err := db.client.DB.From(tableUserAchievements).Select("*").Eq("user_id", userID).Execute(&unlocks); err != nil {
		return nil, fmt.Errorf("supabase: listing achievements of user %s: %w", userID, err)
	}
	if len(unlocks) == 0 {
		return []model.UnlockedAchievement{}, nil
	}

	ids := make([]string, len(unlocks))
	for i, u := range unlocks {
		ids[i] = u.AchievementID
	}
	var catalog []achievementRow
	if err := db.client.DB.From(tableAchievements).Select("*").Filter("id", "in", inList(ids)).Execute(&catalog); err != nil {
		return nil, fmt.Errorf("supabase: loading achievement details: %w", err)
	}
	byID := make(map[string]achievementRow, len(catalog))
	for _, a := range catalog {
		byID[a.ID] = a
	}

	unlocked := make([]model.UnlockedAchievement, 0, len(unlocks))
	for _, u := range unlocks {
		a, ok := byID[u.AchievementID]
		if !ok {
			continue
		}
		unlocked = append(unlocked, model.UnlockedAchievement{
			ID:            u.ID,
			AchievementID: u.AchievementID,
			UnlockedAt:    u.UnlockedAt,
			Name:          a.Name,
			Description:   a.Description,
			BadgeIcon:     a.BadgeIcon,
			Category:      a.Category,
		})
	}
	sort.SliceStable(unlocked, func(i, j int) bool {
		if !unlocked[i].UnlockedAt.Equal(unlocked[j].UnlockedAt) {
			return unlocked[i].UnlockedAt.After(unlocked[j].UnlockedAt)
		}
		return unlocked[i].ID > unlocked[j].ID
	})
	return unlocked, nil
}

func (db *DB) CountAchievementsByUsers(ctx context.Context, userIDs []string) (map[string]int, error) {
	return db.countByUsers(tableUserAchievements, userIDs)
}
