package supabase

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	now := nowUTC()
	event.ID = uuid.NewString()
	event.CreatedAt = now
	event.UpdatedAt = now

	var inserted []eventRow
	err := db.client.DB.From(tableEvents).Insert(newEventRow(event)).Execute(&inserted)
	if isUniqueViolation(err) {
		return apperror.Conflict("event", event.Slug)
	}
	if err != nil {
		return fmt.Errorf("supabase: inserting event %q: %w", event.Title, err)
	}
	return nil
}

func (db *DB) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound("event", id)
	}
	return db.getEvent("id", id)
}

func (db *DB) GetEventBySlug(ctx context.Context, slug string) (*model.Event, error) {
	return db.getEvent("slug", slug)
}

func (db *DB) ListEvents(ctx context.Context, opts repository.ListOptions) ([]model.Event, error) {
	var rows []eventRow
	if err := db.client.DB.From(tableEvents).Select("*").Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: listing events: %w", err)
	}

	events := make([]model.Event, len(rows))
	for i, r := range rows {
		events[i] = r.toModel()
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].EventDate.Equal(events[j].EventDate) {
			return events[i].EventDate.Before(events[j].EventDate)
		}
		return events[i].ID < events[j].ID
	})

	if opts.Offset >= len(events) {
		return []model.Event{}, nil
	}
	events = events[opts.Offset:]
	if opts.Limit > 0 && len(events) > opts.Limit {
		events = events[:opts.Limit]
	}
	return events, nil
}

func (db *DB) UpdateEvent(ctx context.Context, event *model.Event) error {
	current, err := db.GetEventByID(ctx, event.ID)
	if err != nil {
		return err
	}
	event.CreatedAt = current.CreatedAt
	event.UpdatedAt = nowUTC()

	err = db.client.DB.From(tableEvents).Update(map[string]interface{}{
		"slug":             event.Slug,
		"title":            event.Title,
		"description":      event.Description,
		"event_date":       timestamp(event.EventDate),
		"location":         event.Location,
		"image_url":        event.ImageURL,
		"event_type":       event.EventType,
		"registration_url": event.RegistrationURL,
		"updated_at":       timestamp(event.UpdatedAt),
	}).Eq("id", event.ID).Execute(nil)
	if isUniqueViolation(err) {
		return apperror.Conflict("event", event.Slug)
	}
	if err != nil {
		return fmt.Errorf("supabase: updating event %s: %w", event.ID, err)
	}
	return nil
}

func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	if _, err := db.GetEventByID(ctx, id); err != nil {
		return err
	}
	if err := db.client.DB.From(tableEvents).Delete().Eq("id", id).Execute(nil); err != nil {
		return fmt.Errorf("supabase: deleting event %s: %w", id, err)
	}
	return nil
}

func (db *DB) CountEvents(ctx context.Context) (int, error) {
	return db.count(tableEvents)
}

func (db *DB) InsertRegistration(ctx context.Context, reg *model.EventRegistration) error {
	reg.ID = uuid.NewString()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = nowUTC()
	}

	row := registrationRow{ID: reg.ID, UserID: reg.UserID, EventID: reg.EventID, CreatedAt: reg.CreatedAt}
	var inserted []registrationRow
	err := db.client.DB.From(tableRegistrations).Insert(row).Execute(&inserted)
	switch {
	case isUniqueViolation(err):
		return apperror.Conflict("event registration", reg.UserID+"/"+reg.EventID)
	case isForeignKeyViolation(err):
		return notFound("event", reg.EventID)
	case err != nil:
		return fmt.Errorf("supabase: inserting registration: %w", err)
	}
	return nil
}

func (db *DB) ListRegistrationsByUser(ctx context.Context, userID string) ([]model.EventRegistration, error) {
	var rows []registrationRow
	if err := db.client.DB.From(tableRegistrations).Select("*").Eq("user_id", userID).Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: listing registrations of user %s: %w", userID, err)
	}

	regs := make([]model.EventRegistration, len(rows))
	for i, r := range rows {
		regs[i] = model.EventRegistration{ID: r.ID, UserID: r.UserID, EventID: r.EventID, CreatedAt: r.CreatedAt}
	}
	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].CreatedAt.After(regs[j].CreatedAt)
	})
	return regs, nil
}

func (db *DB) CountRegistrationsByUsers(ctx context.Context, userIDs []string) (map[string]int, error) {
	return db.countByUsers(tableRegistrations, userIDs)
}

func (db *DB) CountRegistrations(ctx context.Context) (int, error) {
	return db.count(tableRegistrations)
}

func (db *DB) getEvent(column, value string) (*model.Event, error) {
	var rows []eventRow
	if err := db.client.DB.From(tableEvents).Select("*").Eq(column, value).Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: getting event by %s: %w", column, err)
	}
	if len(rows) == 0 {
		return nil, notFound("event", value)
	}
	e := rows[0].toModel()
	return &e, nil
}
