package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

const (
	MaxDifficultyLength    = 20
	DefaultLeaderboardSize = 10
)

// scoreRule unlocks an achievement when a freshly submitted score satisfies it.
type scoreRule struct {
	achievement string
	matches     func(model.ScoreRecord) bool
}

var scoreRules = []scoreRule{
	{model.AchievementFirstSteps, func(model.ScoreRecord) bool { return true }},
	{"Memory Master", func(r model.ScoreRecord) bool {
		return r.GameName == "memory-matrix" && r.Score >= 150
	}},
	{"Lightning Reflexes", func(r model.ScoreRecord) bool {
		return r.GameName == "reaction-test" && r.TimeTaken != nil && *r.TimeTaken > 0 && *r.TimeTaken < 200
	}},
}

// GameService records arcade scores. It is the Submitter behind game.Manager.
type GameService struct {
	scores       repository.ScoreRepository
	achievements *AchievementService
	logger       *slog.Logger
}

func NewGameService(scores repository.ScoreRepository, achievements *AchievementService, logger *slog.Logger) *GameService {
	return &GameService{
		scores:       scores,
		achievements: achievements,
		logger:       logger,
	}
}

// SubmitScore validates and stores one finished game, then unlocks any achievement the
// score earns. A failed unlock is logged; it never fails the submission.
func (s *GameService) SubmitScore(ctx context.Context, userID, gameName string, score int, timeTaken *int64, difficulty string) (*model.ScoreRecord, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}
	game, ok := model.LookupGame(gameName)
	if !ok {
		return nil, apperror.ValidationFailed("gameName", fmt.Sprintf("unknown game %q", gameName))
	}
	if score < 0 {
		return nil, apperror.ValidationFailed("score", "score must not be negative")
	}
	if timeTaken != nil && *timeTaken < 0 {
		return nil, apperror.ValidationFailed("timeTaken", "time taken must not be negative")
	}
	difficulty = strings.TrimSpace(difficulty)
	if len(difficulty) > MaxDifficultyLength {
		return nil, apperror.ValidationFailed("difficulty", "difficulty is too long")
	}

	record := &model.ScoreRecord{
		UserID:      userID,
		GameName:    game.ID,
		Score:       score,
		TimeTaken:   timeTaken,
		Difficulty:  difficulty,
		CompletedAt: nowUTC(),
	}
	if err := s.scores.InsertScore(ctx, record); err != nil {
		return nil, fmt.Errorf("service/game: saving score: %w", err)
	}

	s.logger.Info("score submitted",
		slog.String("userID", userID),
		slog.String("game", game.ID),
		slog.Int("score", score),
	)

	if s.achievements != nil {
		for _, rule := range scoreRules {
			if !rule.matches(*record) {
				continue
			}
			if _, err := s.achievements.Unlock(ctx, userID, rule.achievement); err != nil {
				s.logger.Error("auto-unlocking achievement",
					slog.String("userID", userID),
					slog.String("achievement", rule.achievement),
					slog.Any("error", err),
				)
			}
		}
	}

	return record, nil
}

// UserScores lists a member's scores, best first. gameName is optional.
func (s *GameService) UserScores(ctx context.Context, userID, gameName string) ([]model.ScoreRecord, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}
	filter := repository.ScoreFilter{UserID: userID}
	if gameName != "" {
		game, ok := model.LookupGame(gameName)
		if !ok {
			return nil, apperror.ValidationFailed("game", fmt.Sprintf("unknown game %q", gameName))
		}
		filter.GameName = game.ID
	}

	records, err := s.scores.ListScores(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/game: listing scores for %s: %w", userID, err)
	}

	// Stable: equal scores keep the store's newest-first order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
	return records, nil
}

// GameLeaderboard is the all-time board of one game: each member's best score, highest
// first. A member's best is their earliest record with the top score.
func (s *GameService) GameLeaderboard(ctx context.Context, gameName string, limit int) ([]model.ScoreRecord, error) {
	game, ok := model.LookupGame(gameName)
	if !ok {
		return nil, apperror.ValidationFailed("game", fmt.Sprintf("unknown game %q", gameName))
	}
	limit = clampLimit(limit, DefaultLeaderboardSize)

	records, err := s.scores.ListScores(ctx, repository.ScoreFilter{GameName: game.ID})
	if err != nil {
		return nil, fmt.Errorf("service/game: loading leaderboard for %s: %w", game.ID, err)
	}

	best := make(map[string]model.ScoreRecord)
	for _, r := range records {
		cur, ok := best[r.UserID]
		if !ok || r.Score > cur.Score || (r.Score == cur.Score && r.CompletedAt.Before(cur.CompletedAt)) {
			best[r.UserID] = r
		}
	}

	board := make([]model.ScoreRecord, 0, len(best))
	for _, r := range best {
		board = append(board, r)
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Score != board[j].Score {
			return board[i].Score > board[j].Score
		}
		if !board[i].CompletedAt.Equal(board[j].CompletedAt) {
			return board[i].CompletedAt.Before(board[j].CompletedAt)
		}
		return board[i].ID < board[j].ID
	})

	if len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}
