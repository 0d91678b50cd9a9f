// Package gamification holds the pure XP, rank and statistics reductions.
//
// Nothing in here touches a store, a clock or a logger: the service layer fetches rows and
// hands them to these functions, so every rule can be tested with plain slices.
package gamification

import "github.com/hitk-robotics/club-portal/internal/model"

// rankThresholds lists the minimum XP of each rank, highest first.
var rankThresholds = []struct {
	minXP int
	rank  model.Rank
}{
	{5000, model.RankLegend},
	{3000, model.RankPlatinum},
	{1500, model.RankGold},
	{500, model.RankSilver},
	{0, model.RankBronze},
}

// CalculateRank maps accumulated XP to a rank label. Negative XP is treated as Bronze.
func CalculateRank(xp int) model.Rank {
	for _, t := range rankThresholds {
		if xp >= t.minXP {
			return t.rank
		}
	}
	return model.RankBronze
}

// RankProgress describes how far a player is from the next rank.
type RankProgress struct {
	Rank     model.Rank `json:"rank"`
	NextRank model.Rank `json:"nextRank,omitempty"`
	XPToNext int        `json:"xpToNext"`
}

// ProgressFor returns the rank for xp and the XP still needed for the next one.
// Legend has no next rank and XPToNext is 0. Negative XP counts as 0.
func ProgressFor(xp int) RankProgress {
	if xp < 0 {
		xp = 0
	}
	p := RankProgress{Rank: CalculateRank(xp)}
	for i := len(rankThresholds) - 1; i >= 0; i-- {
		if rankThresholds[i].minXP > xp {
			p.NextRank = rankThresholds[i].rank
			p.XPToNext = rankThresholds[i].minXP - xp
			break
		}
	}
	return p
}
