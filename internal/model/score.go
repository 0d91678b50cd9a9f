// Package model defines the data structures used throughout the application.
//
// Every entity the stores read or write has an explicit struct here. Store backends convert
// between these and their own row shapes, so no loosely-typed maps cross package boundaries.
package model

import "time"

// ScoreRecord is one completed game session. It is created once, at the moment the game
// session reaches gameover, and never modified afterwards.
type ScoreRecord struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	GameName   string `json:"gameName"`
	Score      int    `json:"score"`
	TimeTaken  *int64 `json:"timeTaken,omitempty"` // milliseconds; nil when the game is untimed
	Difficulty string `json:"difficulty,omitempty"`
	// CompletedAt is always stored in UTC.
	CompletedAt time.Time `json:"completedAt"`
}

// TimeTakenOrZero returns the recorded duration in milliseconds, treating an absent value as 0.
func (s ScoreRecord) TimeTakenOrZero() int64 {
	if s.TimeTaken == nil {
		return 0
	}
	return *s.TimeTaken
}
