package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

const eventColumns = `id, slug, title, description, event_date, location, image_url, event_type, registration_url, created_at, updated_at`

func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	now := nowUTC()
	event.ID = uuid.NewString()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		event.ID, event.Slug, event.Title, event.Description, event.EventDate, event.Location,
		event.ImageURL, event.EventType, event.RegistrationURL, event.CreatedAt, event.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("event", event.Slug)
	}
	if err != nil {
		return fmt.Errorf("postgres: inserting event %q: %w", event.Title, err)
	}
	return nil
}

func (db *DB) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(db.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "event", id, "getting event "+id)
	}
	return e, nil
}

func (db *DB) GetEventBySlug(ctx context.Context, slug string) (*model.Event, error) {
	e, err := scanEvent(db.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFoundOr(err, "event", slug, "getting event "+slug)
	}
	return e, nil
}

// ListEvents passes a NULL limit when opts.Limit is zero; LIMIT NULL means no limit.
func (db *DB) ListEvents(ctx context.Context, opts repository.ListOptions) ([]model.Event, error) {
	var limit *int
	if opts.Limit > 0 {
		limit = &opts.Limit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY event_date ASC, id ASC LIMIT $1 OFFSET $2`,
		limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (db *DB) UpdateEvent(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = nowUTC()
	tag, err := db.pool.Exec(ctx,
		`UPDATE events
		 SET slug = $1, title = $2, description = $3, event_date = $4, location = $5, image_url = $6,
		     event_type = $7, registration_url = $8, updated_at = $9
		 WHERE id = $10`,
		event.Slug, event.Title, event.Description, event.EventDate, event.Location, event.ImageURL,
		event.EventType, event.RegistrationURL, event.UpdatedAt, event.ID,
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("event", event.Slug)
	}
	if isInvalidID(err) {
		return apperror.NotFound("event", event.ID)
	}
	if err != nil {
		return fmt.Errorf("postgres: updating event %s: %w", event.ID, err)
	}
	return checkAffected(tag, "event", event.ID)
}

func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if isInvalidID(err) {
		return apperror.NotFound("event", id)
	}
	if err != nil {
		return fmt.Errorf("postgres: deleting event %s: %w", id, err)
	}
	return checkAffected(tag, "event", id)
}

func (db *DB) CountEvents(ctx context.Context) (int, error) {
	return db.count(ctx, "events")
}

func (db *DB) InsertRegistration(ctx context.Context, reg *model.EventRegistration) error {
	reg.ID = uuid.NewString()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = nowUTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO event_registrations (id, user_id, event_id, created_at) VALUES ($1, $2, $3, $4)`,
		reg.ID, reg.UserID, reg.EventID, reg.CreatedAt,
	)
	switch {
	case isUniqueViolation(err):
		return apperror.Conflict("event registration", reg.UserID+"/"+reg.EventID)
	case isForeignKeyViolation(err), isInvalidID(err):
		return apperror.NotFound("event", reg.EventID)
	case err != nil:
		return fmt.Errorf("postgres: inserting registration: %w", err)
	}
	return nil
}

func (db *DB) ListRegistrationsByUser(ctx context.Context, userID string) ([]model.EventRegistration, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, event_id, created_at FROM event_registrations
		 WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing registrations of user %s: %w", userID, err)
	}
	defer rows.Close()

	regs := []model.EventRegistration{}
	for rows.Next() {
		var r model.EventRegistration
		if err := rows.Scan(&r.ID, &r.UserID, &r.EventID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning registration: %w", err)
		}
		regs = append(regs, r)
	}
	return regs, rows.Err()
}

func (db *DB) CountRegistrationsByUsers(ctx context.Context, userIDs []string) (map[string]int, error) {
	return db.countByUsers(ctx, "event_registrations", userIDs)
}

func (db *DB) CountRegistrations(ctx context.Context) (int, error) {
	return db.count(ctx, "event_registrations")
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Slug, &e.Title, &e.Description, &e.EventDate, &e.Location,
		&e.ImageURL, &e.EventType, &e.RegistrationURL, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
