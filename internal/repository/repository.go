// Package repository declares the storage interfaces the services depend on.
//
// Three backends implement them: repository/sqlite (default, used by tests),
// repository/postgres (pgx) and repository/supabase (the hosted PostgREST API).
// All reductions happen in application code, so the interfaces only ask for row
// retrieval with equality, range and in-set filters.
//
// Error contract shared by every backend:
//   - a missing single row is apperror.ErrNotFound
//   - a uniqueness violation is apperror.ErrConflict
//   - anything else is wrapped with the backend's name as prefix
package repository

import (
	"context"
	"time"

	"github.com/hitk-robotics/club-portal/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// ScoreFilter narrows ListScores. Zero-valued fields do not filter.
type ScoreFilter struct {
	UserID   string
	GameName string
	Since    time.Time // completed_at >= Since
}

type ScoreRepository interface {
	InsertScore(ctx context.Context, record *model.ScoreRecord) error
	ListScores(ctx context.Context, filter ScoreFilter) ([]model.ScoreRecord, error)
	// TopScores returns the highest scores of one game completed at or after since,
	// ordered by score desc, then completed_at asc, then id asc.
	TopScores(ctx context.Context, gameName string, since time.Time, limit int) ([]model.ScoreRecord, error)
	DistinctScoreUsers(ctx context.Context) ([]string, error)
	CountScores(ctx context.Context) (int, error)
}

type RegistrationRepository interface {
	InsertRegistration(ctx context.Context, reg *model.EventRegistration) error
	ListRegistrationsByUser(ctx context.Context, userID string) ([]model.EventRegistration, error)
	// CountRegistrationsByUsers returns a count per user id; users without rows are absent.
	CountRegistrationsByUsers(ctx context.Context, userIDs []string) (map[string]int, error)
	CountRegistrations(ctx context.Context) (int, error)
}

type AchievementRepository interface {
	ListAchievements(ctx context.Context) ([]model.Achievement, error)
	GetAchievementByName(ctx context.Context, name string) (*model.Achievement, error)
	InsertUserAchievement(ctx context.Context, ua *model.UserAchievement) error
	ListUserAchievements(ctx context.Context, userID string) ([]model.UnlockedAchievement, error)
	CountAchievementsByUsers(ctx context.Context, userIDs []string) (map[string]int, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	// UpsertGitHubUser inserts or refreshes the member linked to user.GitHubID.
	UpsertGitHubUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]model.User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

type OrganizerRepository interface {
	UpsertOrganizer(ctx context.Context, org *model.Organizer) error
	GetOrganizerByEmail(ctx context.Context, email string) (*model.Organizer, error)
}

type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEventByID(ctx context.Context, id string) (*model.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*model.Event, error)
	ListEvents(ctx context.Context, opts ListOptions) ([]model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event) error
	DeleteEvent(ctx context.Context, id string) error
	CountEvents(ctx context.Context) (int, error)
}

type MerchandiseRepository interface {
	CreateMerchandise(ctx context.Context, item *model.Merchandise) error
	GetMerchandiseByID(ctx context.Context, id string) (*model.Merchandise, error)
	ListMerchandise(ctx context.Context, onlyAvailable bool) ([]model.Merchandise, error)
	UpdateMerchandise(ctx context.Context, item *model.Merchandise) error
	DeleteMerchandise(ctx context.Context, id string) error
	CountMerchandise(ctx context.Context) (int, error)
}

type TeamRepository interface {
	CreateTeamMember(ctx context.Context, member *model.TeamMember) error
	GetTeamMemberByID(ctx context.Context, id string) (*model.TeamMember, error)
	ListTeamMembers(ctx context.Context) ([]model.TeamMember, error)
	UpdateTeamMember(ctx context.Context, member *model.TeamMember) error
	DeleteTeamMember(ctx context.Context, id string) error
	CountTeamMembers(ctx context.Context) (int, error)
}

type SubscriptionRepository interface {
	InsertSubscription(ctx context.Context, sub *model.Subscription) error
	ListSubscriptions(ctx context.Context, subType string) ([]model.Subscription, error)
	CountSubscriptions(ctx context.Context) (int, error)
}

// Store is everything a backend provides. Services take the narrow interfaces above;
// only the server wiring sees a Store.
type Store interface {
	ScoreRepository
	RegistrationRepository
	AchievementRepository
	UserRepository
	OrganizerRepository
	EventRepository
	MerchandiseRepository
	TeamRepository
	SubscriptionRepository
	Close() error
}
