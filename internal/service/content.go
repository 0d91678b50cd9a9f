package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/sync/errgroup"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	maxSlugAttempts      = 20
)

// ContentRepository is what the organizer pages read and write.
type ContentRepository interface {
	repository.EventRepository
	repository.RegistrationRepository
	repository.MerchandiseRepository
	repository.TeamRepository
	repository.SubscriptionRepository
	CountScores(ctx context.Context) (int, error)
	DistinctScoreUsers(ctx context.Context) ([]string, error)
}

// ContentService manages events, merchandise, the team page and notification
// subscriptions. Writes are organizer-only; the handler enforces that.
type ContentService struct {
	repo         ContentRepository
	achievements *AchievementService
	logger       *slog.Logger
}

func NewContentService(repo ContentRepository, achievements *AchievementService, logger *slog.Logger) *ContentService {
	return &ContentService{
		repo:         repo,
		achievements: achievements,
		logger:       logger,
	}
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// CreateEvent validates event and gives it a URL slug derived from its title. When the
// slug is taken a numeric suffix is added: "robo-wars", "robo-wars-2", ...
func (s *ContentService) CreateEvent(ctx context.Context, event *model.Event) (*model.Event, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	base := slug.Make(event.Title)
	if base == "" {
		base = "event"
	}
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		event.Slug = base
		if attempt > 1 {
			event.Slug = base + "-" + strconv.Itoa(attempt)
		}

		err := s.repo.CreateEvent(ctx, event)
		if apperror.IsConflict(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("service/content: creating event: %w", err)
		}
		s.logger.Info("event created", slog.String("eventID", event.ID), slog.String("slug", event.Slug))
		return event, nil
	}
	return nil, apperror.Conflict("event", base)
}

func (s *ContentService) GetEvent(ctx context.Context, slugOrID string) (*model.Event, error) {
	event, err := s.repo.GetEventBySlug(ctx, slugOrID)
	if apperror.IsNotFound(err) {
		event, err = s.repo.GetEventByID(ctx, slugOrID)
	}
	if err != nil {
		return nil, fmt.Errorf("service/content: fetching event: %w", err)
	}
	return event, nil
}

// ListEvents lists events by date, earliest first.
func (s *ContentService) ListEvents(ctx context.Context, limit, offset int) ([]model.Event, error) {
	if offset < 0 {
		offset = 0
	}
	events, err := s.repo.ListEvents(ctx, repository.ListOptions{Limit: clampLimit(limit, DefaultListLimit), Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("service/content: listing events: %w", err)
	}
	return events, nil
}

// UpdateEvent replaces the editable fields of an event. The slug stays fixed so shared
// links keep working after a title edit.
func (s *ContentService) UpdateEvent(ctx context.Context, id string, changes *model.Event) (*model.Event, error) {
	if err := validateEvent(changes); err != nil {
		return nil, err
	}

	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/content: fetching event: %w", err)
	}

	event.Title = changes.Title
	event.Description = changes.Description
	event.EventDate = changes.EventDate
	event.Location = changes.Location
	event.ImageURL = changes.ImageURL
	event.EventType = changes.EventType
	event.RegistrationURL = changes.RegistrationURL

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("service/content: updating event: %w", err)
	}
	return event, nil
}

func (s *ContentService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return fmt.Errorf("service/content: deleting event: %w", err)
	}
	s.logger.Info("event deleted", slog.String("eventID", id))
	return nil
}

// RegisterForEvent signs a member up for an event. Registering twice is not an error;
// alreadyRegistered reports it. The first registration unlocks "Event Explorer".
func (s *ContentService) RegisterForEvent(ctx context.Context, userID, eventID string) (alreadyRegistered bool, err error) {
	if userID == "" {
		return false, apperror.ValidationFailed("userId", "user id is required")
	}
	if _, err := s.repo.GetEventByID(ctx, eventID); err != nil {
		return false, fmt.Errorf("service/content: fetching event: %w", err)
	}

	err = s.repo.InsertRegistration(ctx, &model.EventRegistration{UserID: userID, EventID: eventID})
	if apperror.IsConflict(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("service/content: registering for event: %w", err)
	}

	if s.achievements != nil {
		if _, err := s.achievements.Unlock(ctx, userID, "Event Explorer"); err != nil {
			s.logger.Error("auto-unlocking achievement", slog.String("userID", userID), slog.Any("error", err))
		}
	}
	return false, nil
}

func validateEvent(e *model.Event) error {
	if e == nil {
		return apperror.ValidationFailed("event", "event is required")
	}
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return apperror.ValidationFailed("title", "event title is required")
	}
	if len(e.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title", "event title is too long")
	}
	if len(e.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description", "event description is too long")
	}
	if e.EventDate.IsZero() {
		return apperror.ValidationFailed("eventDate", "event date is required")
	}
	if e.EventType == "" {
		e.EventType = model.EventTypes[0]
	}
	if !slices.Contains(model.EventTypes, e.EventType) {
		return apperror.ValidationFailed("eventType", "unknown event type "+e.EventType)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Merchandise
// ---------------------------------------------------------------------------

func (s *ContentService) CreateMerchandise(ctx context.Context, item *model.Merchandise) (*model.Merchandise, error) {
	if err := validateMerchandise(item); err != nil {
		return nil, err
	}
	if err := s.repo.CreateMerchandise(ctx, item); err != nil {
		return nil, fmt.Errorf("service/content: creating merchandise: %w", err)
	}
	return item, nil
}

// ListMerchandise lists by display order. The public store passes onlyAvailable=true.
func (s *ContentService) ListMerchandise(ctx context.Context, onlyAvailable bool) ([]model.Merchandise, error) {
	items, err := s.repo.ListMerchandise(ctx, onlyAvailable)
	if err != nil {
		return nil, fmt.Errorf("service/content: listing merchandise: %w", err)
	}
	return items, nil
}

func (s *ContentService) UpdateMerchandise(ctx context.Context, id string, item *model.Merchandise) (*model.Merchandise, error) {
	if err := validateMerchandise(item); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetMerchandiseByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/content: fetching merchandise: %w", err)
	}

	item.ID = existing.ID
	item.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateMerchandise(ctx, item); err != nil {
		return nil, fmt.Errorf("service/content: updating merchandise: %w", err)
	}
	return item, nil
}

func (s *ContentService) DeleteMerchandise(ctx context.Context, id string) error {
	if err := s.repo.DeleteMerchandise(ctx, id); err != nil {
		return fmt.Errorf("service/content: deleting merchandise: %w", err)
	}
	return nil
}

func validateMerchandise(m *model.Merchandise) error {
	if m == nil {
		return apperror.ValidationFailed("merchandise", "item is required")
	}
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return apperror.ValidationFailed("name", "item name is required")
	}
	if len(m.Name) > MaxTitleLength {
		return apperror.ValidationFailed("name", "item name is too long")
	}
	if m.Price != nil && *m.Price < 0 {
		return apperror.ValidationFailed("price", "price must not be negative")
	}
	if m.Category == "" {
		m.Category = "Other"
	}
	if !slices.Contains(model.MerchandiseCategories, m.Category) {
		return apperror.ValidationFailed("category", "unknown category "+m.Category)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Team
// ---------------------------------------------------------------------------

func (s *ContentService) CreateTeamMember(ctx context.Context, member *model.TeamMember) (*model.TeamMember, error) {
	if err := validateTeamMember(member); err != nil {
		return nil, err
	}
	if err := s.repo.CreateTeamMember(ctx, member); err != nil {
		return nil, fmt.Errorf("service/content: creating team member: %w", err)
	}
	return member, nil
}

func (s *ContentService) ListTeamMembers(ctx context.Context) ([]model.TeamMember, error) {
	members, err := s.repo.ListTeamMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/content: listing team: %w", err)
	}
	return members, nil
}

func (s *ContentService) UpdateTeamMember(ctx context.Context, id string, member *model.TeamMember) (*model.TeamMember, error) {
	if err := validateTeamMember(member); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetTeamMemberByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/content: fetching team member: %w", err)
	}

	member.ID = existing.ID
	member.CreatedAt = existing.CreatedAt
	if err := s.repo.UpdateTeamMember(ctx, member); err != nil {
		return nil, fmt.Errorf("service/content: updating team member: %w", err)
	}
	return member, nil
}

func (s *ContentService) DeleteTeamMember(ctx context.Context, id string) error {
	if err := s.repo.DeleteTeamMember(ctx, id); err != nil {
		return fmt.Errorf("service/content: deleting team member: %w", err)
	}
	return nil
}

func validateTeamMember(m *model.TeamMember) error {
	if m == nil {
		return apperror.ValidationFailed("member", "team member is required")
	}
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return apperror.ValidationFailed("name", "name is required")
	}
	if strings.TrimSpace(m.Role) == "" {
		return apperror.ValidationFailed("role", "role is required")
	}
	if m.Department == "" {
		m.Department = model.TeamDepartments[0]
	}
	if !slices.Contains(model.TeamDepartments, m.Department) {
		return apperror.ValidationFailed("department", "unknown department "+m.Department)
	}
	if m.Email != "" && !strings.Contains(m.Email, "@") {
		return apperror.ValidationFailed("email", "invalid email address")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Subscriptions and dashboard
// ---------------------------------------------------------------------------

// Subscribe signs an email up for "events" or "merch" announcements. An existing
// subscription is reported through alreadySubscribed, not as an error.
func (s *ContentService) Subscribe(ctx context.Context, email, subType string) (alreadySubscribed bool, err error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") || len(email) > MaxEmailLength {
		return false, apperror.ValidationFailed("email", "a valid email is required")
	}
	if subType != model.SubscriptionEvents && subType != model.SubscriptionMerch {
		return false, apperror.ValidationFailed("type", "type must be events or merch")
	}

	err = s.repo.InsertSubscription(ctx, &model.Subscription{Email: email, Type: subType, Confirmed: true})
	if apperror.IsConflict(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("service/content: subscribing: %w", err)
	}
	return false, nil
}

// ListSubscriptions lists newest first; an empty subType lists both kinds.
func (s *ContentService) ListSubscriptions(ctx context.Context, subType string) ([]model.Subscription, error) {
	if subType != "" && subType != model.SubscriptionEvents && subType != model.SubscriptionMerch {
		return nil, apperror.ValidationFailed("type", "type must be events or merch")
	}
	subs, err := s.repo.ListSubscriptions(ctx, subType)
	if err != nil {
		return nil, fmt.Errorf("service/content: listing subscriptions: %w", err)
	}
	return subs, nil
}

// Dashboard collects the organizer summary counts concurrently.
func (s *ContentService) Dashboard(ctx context.Context) (*model.DashboardCounts, error) {
	var counts model.DashboardCounts

	g, gctx := errgroup.WithContext(ctx)
	countInto := func(dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			*dst = n
			return err
		})
	}
	countInto(&counts.Events, s.repo.CountEvents)
	countInto(&counts.Merchandise, s.repo.CountMerchandise)
	countInto(&counts.TeamMembers, s.repo.CountTeamMembers)
	countInto(&counts.Subscriptions, s.repo.CountSubscriptions)
	countInto(&counts.Registrations, s.repo.CountRegistrations)
	countInto(&counts.ScoreRecords, s.repo.CountScores)
	countInto(&counts.Players, func(ctx context.Context) (int, error) {
		ids, err := s.repo.DistinctScoreUsers(ctx)
		return len(ids), err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("service/content: building dashboard: %w", err)
	}
	return &counts, nil
}
