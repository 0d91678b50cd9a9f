package gamification

import (
	"testing"
	"time"

	"github.com/hitk-robotics/club-portal/internal/model"
)

func scores(values ...int) []model.ScoreRecord {
	out := make([]model.ScoreRecord, len(values))
	for i, v := range values {
		out[i] = model.ScoreRecord{UserID: "u1", GameName: "memory-matrix", Score: v, CompletedAt: time.Now()}
	}
	return out
}

func ms(v int64) *int64 { return &v }

func TestSummarizeUser_Empty(t *testing.T) {
	got := SummarizeUser("u1", "a@club.test", nil, 0, 0)

	if got.TotalGamesPlayed != 0 || got.HighestScore != 0 || got.AverageScore != 0 || got.TotalXP != 0 {
		t.Errorf("SummarizeUser(empty) = %+v, want all score fields zero", got)
	}
	if got.Rank != model.RankBronze {
		t.Errorf("Rank = %s, want Bronze", got.Rank)
	}
	if got.UserID != "u1" || got.Email != "a@club.test" {
		t.Errorf("identity fields not carried through: %+v", got)
	}
}

func TestSummarizeUser_Scenario(t *testing.T) {
	got := SummarizeUser("u1", "a@club.test", scores(100, 150, 50), 2, 3)

	want := model.UserStats{
		UserID:           "u1",
		Email:            "a@club.test",
		TotalGamesPlayed: 3,
		HighestScore:     150,
		AverageScore:     100,
		TotalXP:          150,
		Rank:             model.RankBronze,
		Achievements:     2,
		EventsAttended:   3,
	}
	if got != want {
		t.Errorf("SummarizeUser() = %+v, want %+v", got, want)
	}
}

func TestSummarizeUser_AverageRoundsHalfUp(t *testing.T) {
	got := SummarizeUser("u1", "", scores(1, 2), 0, 0)
	if got.AverageScore != 2 {
		t.Errorf("AverageScore of [1 2] = %d, want 2", got.AverageScore)
	}
}

func TestSummarizeUser_RankFromTotalXP(t *testing.T) {
	// ten perfect games = 1000 XP = Silver
	values := make([]int, 10)
	for i := range values {
		values[i] = 200
	}
	got := SummarizeUser("u1", "", scores(values...), 0, 0)
	if got.TotalXP != 1000 || got.Rank != model.RankSilver {
		t.Errorf("TotalXP=%d Rank=%s, want 1000 Silver", got.TotalXP, got.Rank)
	}
}

func TestSummarizeUser_MatchesTotalXP(t *testing.T) {
	values := []int{0, 37, 199, 200, 250}
	got := SummarizeUser("u1", "", scores(values...), 0, 0)
	if want := TotalXP(values); got.TotalXP != want {
		t.Errorf("TotalXP = %d, want %d", got.TotalXP, want)
	}
}

func TestSummarizeGame_NoRecordsIsAbsent(t *testing.T) {
	if got := SummarizeGame("memory-matrix", nil); got != nil {
		t.Errorf("SummarizeGame(empty) = %+v, want nil", got)
	}
}

func TestSummarizeGame(t *testing.T) {
	records := []model.ScoreRecord{
		{Score: 40, TimeTaken: ms(900)},
		{Score: 10, TimeTaken: nil},
		{Score: 25, TimeTaken: ms(0)},
		{Score: 90, TimeTaken: ms(350)},
	}

	got := SummarizeGame("reaction-test", records)
	if got == nil {
		t.Fatal("SummarizeGame() = nil, want stats")
	}

	if got.GameName != "reaction-test" {
		t.Errorf("GameName = %q", got.GameName)
	}
	if got.TotalPlays != 4 {
		t.Errorf("TotalPlays = %d, want 4", got.TotalPlays)
	}
	if got.HighestScore != 90 || got.LowestScore != 10 {
		t.Errorf("High/Low = %d/%d, want 90/10", got.HighestScore, got.LowestScore)
	}
	if got.AverageScore != 41 { // 165/4 = 41.25
		t.Errorf("AverageScore = %d, want 41", got.AverageScore)
	}
	if got.TotalTimePlayed != 1250 {
		t.Errorf("TotalTimePlayed = %d, want 1250", got.TotalTimePlayed)
	}
	if got.BestTime == nil || *got.BestTime != 350 {
		t.Errorf("BestTime = %v, want 350", got.BestTime)
	}
}

func TestSummarizeGame_NoPositiveTimes(t *testing.T) {
	records := []model.ScoreRecord{
		{Score: 5, TimeTaken: ms(0)},
		{Score: 7},
	}

	got := SummarizeGame("memory-matrix", records)
	if got.BestTime != nil {
		t.Errorf("BestTime = %d, want nil when no positive time exists", *got.BestTime)
	}
	if got.TotalTimePlayed != 0 {
		t.Errorf("TotalTimePlayed = %d, want 0", got.TotalTimePlayed)
	}
}
