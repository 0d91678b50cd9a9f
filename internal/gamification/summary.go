package gamification

import (
	"math"

	"github.com/hitk-robotics/club-portal/internal/model"
)

// SummarizeUser reduces one user's rows into UserStats.
//
// With no score records every score field is 0 and the rank is Bronze.
func SummarizeUser(userID, email string, records []model.ScoreRecord, achievements, eventsAttended int) model.UserStats {
	stats := model.UserStats{
		UserID:           userID,
		Email:            email,
		TotalGamesPlayed: len(records),
		Achievements:     achievements,
		EventsAttended:   eventsAttended,
	}

	if len(records) > 0 {
		sum := 0
		scores := make([]int, len(records))
		stats.HighestScore = records[0].Score
		for i, r := range records {
			sum += r.Score
			scores[i] = r.Score
			if r.Score > stats.HighestScore {
				stats.HighestScore = r.Score
			}
		}
		stats.TotalXP = TotalXP(scores)
		stats.AverageScore = roundedMean(sum, len(records))
	}

	stats.Rank = CalculateRank(stats.TotalXP)
	return stats
}

// SummarizeGame reduces the score records of one game into GameStats.
// It returns nil when records is empty.
func SummarizeGame(gameName string, records []model.ScoreRecord) *model.GameStats {
	if len(records) == 0 {
		return nil
	}

	stats := &model.GameStats{
		GameName:     gameName,
		TotalPlays:   len(records),
		HighestScore: records[0].Score,
		LowestScore:  records[0].Score,
	}

	sum := 0
	for _, r := range records {
		sum += r.Score
		if r.Score > stats.HighestScore {
			stats.HighestScore = r.Score
		}
		if r.Score < stats.LowestScore {
			stats.LowestScore = r.Score
		}

		t := r.TimeTakenOrZero()
		stats.TotalTimePlayed += t
		if t > 0 && (stats.BestTime == nil || t < *stats.BestTime) {
			best := t
			stats.BestTime = &best
		}
	}
	stats.AverageScore = roundedMean(sum, len(records))

	return stats
}

// roundedMean rounds halves up, matching how the scoreboards have always displayed averages.
func roundedMean(sum, n int) int {
	return int(math.Floor(float64(sum)/float64(n) + 0.5))
}
