package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/gamification"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

const (
	WeeklyWindow     = 7 * 24 * time.Hour
	WeeklyBoardLimit = 10
)

// StatsService derives statistics and leaderboards from score rows on every request.
// Nothing it computes is stored.
type StatsService struct {
	scores        repository.ScoreRepository
	registrations repository.RegistrationRepository
	achievements  repository.AchievementRepository
	users         repository.UserRepository
	logger        *slog.Logger
	now           func() time.Time
}

func NewStatsService(
	scores repository.ScoreRepository,
	registrations repository.RegistrationRepository,
	achievements repository.AchievementRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *StatsService {
	return &StatsService{
		scores:        scores,
		registrations: registrations,
		achievements:  achievements,
		users:         users,
		logger:        logger,
		now:           time.Now,
	}
}

// UserStats aggregates one member's profile numbers. It returns nil ("no stats") for an
// empty userID or when any of the four reads fails; the failure is logged. A member the
// user store does not know is reported with the email "Unknown".
func (s *StatsService) UserStats(ctx context.Context, userID string) *model.UserStats {
	if userID == "" {
		s.logger.Warn("user stats requested without a user id",
			slog.Any("error", apperror.ValidationFailed("userId", "user id is required")))
		return nil
	}

	var (
		records       []model.ScoreRecord
		registrations []model.EventRegistration
		unlocked      []model.UnlockedAchievement
		email         = model.UnknownEmail
	)

	// The four reads are independent; run them together and fail as one.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.scores.ListScores(gctx, repository.ScoreFilter{UserID: userID})
		return err
	})
	g.Go(func() error {
		var err error
		registrations, err = s.registrations.ListRegistrationsByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		unlocked, err = s.achievements.ListUserAchievements(gctx, userID)
		return err
	})
	g.Go(func() error {
		user, err := s.users.GetUserByID(gctx, userID)
		if apperror.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if user.Email != "" {
			email = user.Email
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("aggregating user stats", slog.String("userID", userID), slog.Any("error", err))
		return nil
	}

	stats := gamification.SummarizeUser(userID, email, records, len(unlocked), len(registrations))
	return &stats
}

// GameStats summarises one game, for every player or only for userID when it is set.
// It returns nil when the game is unknown, when there are no matching records, or when the
// store fails.
func (s *StatsService) GameStats(ctx context.Context, gameName, userID string) *model.GameStats {
	game, ok := model.LookupGame(gameName)
	if !ok {
		s.logger.Warn("game stats requested for an unknown game", slog.String("game", gameName))
		return nil
	}

	records, err := s.scores.ListScores(ctx, repository.ScoreFilter{UserID: userID, GameName: game.ID})
	if err != nil {
		s.logger.Error("loading game stats",
			slog.String("game", game.ID),
			slog.String("userID", userID),
			slog.Any("error", err),
		)
		return nil
	}

	return gamification.SummarizeGame(game.ID, records)
}

// ProfileGame pairs a catalog game with a member's stats for it. Stats is nil when the
// member has not played the game (or the lookup failed).
type ProfileGame struct {
	Game  model.Game       `json:"game"`
	Stats *model.GameStats `json:"stats"`
}

// ProfileGameStats runs GameStats for every game in the catalog concurrently. One failed
// game leaves its entry empty; it never hides the others.
func (s *StatsService) ProfileGameStats(ctx context.Context, userID string) []ProfileGame {
	out := make([]ProfileGame, len(model.Games))

	var g errgroup.Group
	for i, game := range model.Games {
		out[i].Game = game
		g.Go(func() error {
			out[i].Stats = s.GameStats(ctx, game.ID, userID)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// WeeklyLeaderboard returns the ten best scores of the trailing seven days for one game.
// Ties go to the earlier score, then to the lower record id. Players the user store cannot
// resolve are shown as "Anonymous", including when the identity lookup itself fails. A
// failure to load the scores yields an empty board.
func (s *StatsService) WeeklyLeaderboard(ctx context.Context, gameName string) []model.WeeklyEntry {
	entries := []model.WeeklyEntry{}

	game, ok := model.LookupGame(gameName)
	if !ok {
		s.logger.Warn("weekly leaderboard requested for an unknown game", slog.String("game", gameName))
		return entries
	}

	since := s.now().Add(-WeeklyWindow)
	records, err := s.scores.TopScores(ctx, game.ID, since, WeeklyBoardLimit)
	if err != nil {
		s.logger.Error("loading weekly leaderboard", slog.String("game", game.ID), slog.Any("error", err))
		return entries
	}
	if len(records) == 0 {
		return entries
	}

	users, err := s.users.GetUsersByIDs(ctx, distinctUserIDs(records))
	if err != nil {
		s.logger.Error("resolving weekly leaderboard players", slog.String("game", game.ID), slog.Any("error", err))
		users = nil
	}

	for _, r := range records {
		email := model.AnonymousEmail
		if u, ok := users[r.UserID]; ok && u.Email != "" {
			email = u.Email
		}
		entries = append(entries, model.WeeklyEntry{
			GameName: r.GameName,
			Score:    r.Score,
			PlayedAt: r.CompletedAt,
			UserID:   r.UserID,
			Email:    email,
		})
	}
	return entries
}

// AllUsersLeaderboard ranks every member with at least one score by total XP.
//
// Instead of aggregating member by member, it reads all scores once and fetches the
// registration counts, achievement counts and identities in three batched queries, then
// reduces with the same SummarizeUser used for a single profile. Ties are broken by user
// id. Any failure yields an empty board.
func (s *StatsService) AllUsersLeaderboard(ctx context.Context) []model.UserStats {
	board := []model.UserStats{}

	records, err := s.scores.ListScores(ctx, repository.ScoreFilter{})
	if err != nil {
		s.logger.Error("loading scores for the leaderboard", slog.Any("error", err))
		return board
	}
	if len(records) == 0 {
		return board
	}

	byUser := make(map[string][]model.ScoreRecord)
	for _, r := range records {
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}
	userIDs := distinctUserIDs(records)

	var (
		registrations map[string]int
		achievements  map[string]int
		users         map[string]model.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		registrations, err = s.registrations.CountRegistrationsByUsers(gctx, userIDs)
		return err
	})
	g.Go(func() error {
		var err error
		achievements, err = s.achievements.CountAchievementsByUsers(gctx, userIDs)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.users.GetUsersByIDs(gctx, userIDs)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("loading leaderboard counts", slog.Int("users", len(userIDs)), slog.Any("error", err))
		return board
	}

	for _, id := range userIDs {
		email := model.UnknownEmail
		if u, ok := users[id]; ok && u.Email != "" {
			email = u.Email
		}
		board = append(board, gamification.SummarizeUser(id, email, byUser[id], achievements[id], registrations[id]))
	}

	sort.SliceStable(board, func(i, j int) bool {
		if board[i].TotalXP != board[j].TotalXP {
			return board[i].TotalXP > board[j].TotalXP
		}
		return board[i].UserID < board[j].UserID
	})
	return board
}

// distinctUserIDs returns the user ids of records, sorted, without duplicates.
func distinctUserIDs(records []model.ScoreRecord) []string {
	seen := make(map[string]struct{}, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}
	sort.Strings(ids)
	return ids
}
