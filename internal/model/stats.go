package model

import "time"

// Rank is the discrete label derived from accumulated XP.
type Rank string

const (
	RankBronze   Rank = "Bronze"
	RankSilver   Rank = "Silver"
	RankGold     Rank = "Gold"
	RankPlatinum Rank = "Platinum"
	RankLegend   Rank = "Legend"
)

// UserStats is derived on every request from the user's score, registration and
// achievement rows. It is never persisted.
type UserStats struct {
	UserID           string `json:"userId"`
	Email            string `json:"email"`
	TotalGamesPlayed int    `json:"totalGamesPlayed"`
	HighestScore     int    `json:"highestScore"`
	AverageScore     int    `json:"averageScore"`
	TotalXP          int    `json:"totalXP"`
	Rank             Rank   `json:"rank"`
	Achievements     int    `json:"achievements"`
	EventsAttended   int    `json:"eventsAttended"`
}

// GameStats summarises the score records of one game, optionally for one user.
// A nil *GameStats means "no data", which is distinct from a stats value full of zeros.
type GameStats struct {
	GameName        string `json:"gameName"`
	TotalPlays      int    `json:"totalPlays"`
	HighestScore    int    `json:"highestScore"`
	AverageScore    int    `json:"averageScore"`
	LowestScore     int    `json:"lowestScore"`
	TotalTimePlayed int64  `json:"totalTimePlayed"`    // milliseconds
	BestTime        *int64 `json:"bestTime,omitempty"` // fastest positive time, milliseconds
}

// WeeklyEntry is one row of a game's trailing seven-day leaderboard.
type WeeklyEntry struct {
	GameName string    `json:"gameName"`
	Score    int       `json:"score"`
	PlayedAt time.Time `json:"playedAt"`
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
}

// Display labels for identities the user store could not resolve.
const (
	UnknownEmail   = "Unknown"
	AnonymousEmail = "Anonymous"
)
