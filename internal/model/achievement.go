package model

import "time"

// Achievement is a static catalog entry. The portal never mutates the catalog at runtime;
// it is seeded by the store migrations.
type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BadgeIcon   string `json:"badgeIcon"`
	Category    string `json:"category"`
}

// UserAchievement records that a user unlocked an achievement.
// (UserID, AchievementID) is unique in every store backend.
type UserAchievement struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	AchievementID string    `json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

// UnlockedAchievement is a UserAchievement joined with its catalog entry, for profile pages.
type UnlockedAchievement struct {
	ID            string    `json:"id"`
	AchievementID string    `json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	BadgeIcon     string    `json:"badgeIcon"`
	Category      string    `json:"category"`
}

// AchievementFirstSteps is unlocked automatically when a member submits their first score.
const AchievementFirstSteps = "First Steps"

// DefaultAchievements is the catalog seeded into a fresh store.
var DefaultAchievements = []Achievement{
	{Name: AchievementFirstSteps, Description: "Finished your first arcade game", BadgeIcon: "🎮", Category: "games"},
	{Name: "Memory Master", Description: "Scored 150 or more in Memory Matrix", BadgeIcon: "🧠", Category: "games"},
	{Name: "Lightning Reflexes", Description: "Reacted in under 200ms in Reaction Test", BadgeIcon: "⚡", Category: "games"},
	{Name: "Event Explorer", Description: "Registered for your first club event", BadgeIcon: "🗓️", Category: "events"},
	{Name: "Legend", Description: "Reached the Legend rank", BadgeIcon: "🏆", Category: "ranks"},
}
