package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/xid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

const eventColumns = `id, slug, title, description, event_date, location, image_url, event_type, registration_url, created_at, updated_at`

func (db *DB) CreateEvent(ctx context.Context, event *model.Event) error {
	now := nowUTC()
	event.ID = xid.New().String()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Slug,
		event.Title,
		event.Description,
		event.EventDate.UTC(),
		event.Location,
		event.ImageURL,
		event.EventType,
		event.RegistrationURL,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("event", event.Slug)
	}
	if err != nil {
		return fmt.Errorf("sqlite: inserting event %q: %w", event.Title, err)
	}
	return nil
}

func (db *DB) GetEventByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(db.conn.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "event", id, "getting event "+id)
	}
	return e, nil
}

func (db *DB) GetEventBySlug(ctx context.Context, slug string) (*model.Event, error) {
	e, err := scanEvent(db.conn.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = ?`, slug))
	if err != nil {
		return nil, notFoundOr(err, "event", slug, "getting event "+slug)
	}
	return e, nil
}

// ListEvents returns events by date, soonest first. A zero Limit means no limit;
// SQLite spells that LIMIT -1.
func (db *DB) ListEvents(ctx context.Context, opts repository.ListOptions) ([]model.Event, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY event_date ASC, id ASC LIMIT ? OFFSET ?`,
		limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}
	return events, nil
}

func (db *DB) UpdateEvent(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = nowUTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE events
		 SET slug = ?, title = ?, description = ?, event_date = ?, location = ?, image_url = ?,
		     event_type = ?, registration_url = ?, updated_at = ?
		 WHERE id = ?`,
		event.Slug,
		event.Title,
		event.Description,
		event.EventDate.UTC(),
		event.Location,
		event.ImageURL,
		event.EventType,
		event.RegistrationURL,
		event.UpdatedAt,
		event.ID,
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("event", event.Slug)
	}
	if err != nil {
		return fmt.Errorf("sqlite: updating event %s: %w", event.ID, err)
	}
	return checkAffected(result, "event", event.ID)
}

// DeleteEvent removes the event; its registrations go with it through ON DELETE CASCADE.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting event %s: %w", id, err)
	}
	return checkAffected(result, "event", id)
}

func (db *DB) CountEvents(ctx context.Context) (int, error) {
	return db.count(ctx, "events")
}

func (db *DB) InsertRegistration(ctx context.Context, reg *model.EventRegistration) error {
	reg.ID = xid.New().String()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = nowUTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO event_registrations (id, user_id, event_id, created_at) VALUES (?, ?, ?, ?)`,
		reg.ID, reg.UserID, reg.EventID, reg.CreatedAt.UTC(),
	)
	switch {
	case isUniqueViolation(err):
		return apperror.Conflict("event registration", reg.UserID+"/"+reg.EventID)
	case err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
		return apperror.NotFound("event", reg.EventID)
	case err != nil:
		return fmt.Errorf("sqlite: inserting registration: %w", err)
	}
	return nil
}

func (db *DB) ListRegistrationsByUser(ctx context.Context, userID string) ([]model.EventRegistration, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, event_id, created_at FROM event_registrations
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing registrations of user %s: %w", userID, err)
	}
	defer rows.Close()

	regs := []model.EventRegistration{}
	for rows.Next() {
		var r model.EventRegistration
		if err := rows.Scan(&r.ID, &r.UserID, &r.EventID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning registration: %w", err)
		}
		regs = append(regs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating registrations: %w", err)
	}
	return regs, nil
}

func (db *DB) CountRegistrationsByUsers(ctx context.Context, userIDs []string) (map[string]int, error) {
	return db.countByUsers(ctx, "event_registrations", userIDs)
}

func (db *DB) CountRegistrations(ctx context.Context) (int, error) {
	return db.count(ctx, "event_registrations")
}

func scanEvent(row rowScanner) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Slug, &e.Title, &e.Description, &e.EventDate, &e.Location,
		&e.ImageURL, &e.EventType, &e.RegistrationURL, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
