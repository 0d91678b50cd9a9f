package gamification

// DefaultMaxScore is the score that earns the full XP award when a game has no
// specific maximum.
const DefaultMaxScore = 200

// MaxXPPerGame is the largest award a single game session can earn.
const MaxXPPerGame = 100

// CalculateXP converts one game score into an XP award in [0, 100].
//
// The award is ceil(score/maxScore * 100), capped at 100. It is computed in integers so
// that exact quotients such as 7/100 do not round up through float error.
// A maxScore of zero or less falls back to DefaultMaxScore.
func CalculateXP(score, maxScore int) int {
	if maxScore <= 0 {
		maxScore = DefaultMaxScore
	}
	if score <= 0 {
		return 0
	}
	if score >= maxScore {
		return MaxXPPerGame
	}
	return (score*MaxXPPerGame + maxScore - 1) / maxScore
}

// TotalXP sums CalculateXP over scores using DefaultMaxScore.
func TotalXP(scores []int) int {
	total := 0
	for _, s := range scores {
		total += CalculateXP(s, DefaultMaxScore)
	}
	return total
}
