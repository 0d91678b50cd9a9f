package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

// Merchandise, team members and subscriptions: plain CRUD tables behind the organizer pages.

const merchColumns = `id, name, description, category, price, image_url, available, display_order, created_at, updated_at`

func (db *DB) CreateMerchandise(ctx context.Context, item *model.Merchandise) error {
	now := nowUTC()
	item.ID = xid.New().String()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO merchandise (`+merchColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Description, item.Category, nullPrice(item.Price),
		item.ImageURL, item.Available, item.DisplayOrder, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting merchandise %q: %w", item.Name, err)
	}
	return nil
}

func (db *DB) GetMerchandiseByID(ctx context.Context, id string) (*model.Merchandise, error) {
	item, err := scanMerchandise(db.conn.QueryRowContext(ctx, `SELECT `+merchColumns+` FROM merchandise WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "merchandise", id, "getting merchandise "+id)
	}
	return item, nil
}

// ListMerchandise orders by display_order, then name, the way the store page shows it.
func (db *DB) ListMerchandise(ctx context.Context, onlyAvailable bool) ([]model.Merchandise, error) {
	query := `SELECT ` + merchColumns + ` FROM merchandise`
	if onlyAvailable {
		query += ` WHERE available = 1`
	}
	query += ` ORDER BY display_order ASC, name ASC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing merchandise: %w", err)
	}
	defer rows.Close()

	items := []model.Merchandise{}
	for rows.Next() {
		item, err := scanMerchandise(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning merchandise: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating merchandise: %w", err)
	}
	return items, nil
}

func (db *DB) UpdateMerchandise(ctx context.Context, item *model.Merchandise) error {
	item.UpdatedAt = nowUTC()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE merchandise
		 SET name = ?, description = ?, category = ?, price = ?, image_url = ?, available = ?,
		     display_order = ?, updated_at = ?
		 WHERE id = ?`,
		item.Name, item.Description, item.Category, nullPrice(item.Price), item.ImageURL,
		item.Available, item.DisplayOrder, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating merchandise %s: %w", item.ID, err)
	}
	return checkAffected(result, "merchandise", item.ID)
}

func (db *DB) DeleteMerchandise(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM merchandise WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting merchandise %s: %w", id, err)
	}
	return checkAffected(result, "merchandise", id)
}

func (db *DB) CountMerchandise(ctx context.Context) (int, error) {
	return db.count(ctx, "merchandise")
}

const teamColumns = `id, name, role, department, bio, image_url, github_url, linkedin_url, email, display_order, created_at, updated_at`

func (db *DB) CreateTeamMember(ctx context.Context, member *model.TeamMember) error {
	now := nowUTC()
	member.ID = xid.New().String()
	member.CreatedAt = now
	member.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO team_members (`+teamColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		member.ID, member.Name, member.Role, member.Department, member.Bio, member.ImageURL,
		member.GitHubURL, member.LinkedInURL, member.Email, member.DisplayOrder,
		member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting team member %q: %w", member.Name, err)
	}
	return nil
}

func (db *DB) GetTeamMemberByID(ctx context.Context, id string) (*model.TeamMember, error) {
	m, err := scanTeamMember(db.conn.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM team_members WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "team member", id, "getting team member "+id)
	}
	return m, nil
}

func (db *DB) ListTeamMembers(ctx context.Context) ([]model.TeamMember, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+teamColumns+` FROM team_members ORDER BY display_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing team members: %w", err)
	}
	defer rows.Close()

	members := []model.TeamMember{}
	for rows.Next() {
		m, err := scanTeamMember(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning team member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating team members: %w", err)
	}
	return members, nil
}

func (db *DB) UpdateTeamMember(ctx context.Context, member *model.TeamMember) error {
	member.UpdatedAt = nowUTC()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE team_members
		 SET name = ?, role = ?, department = ?, bio = ?, image_url = ?, github_url = ?,
		     linkedin_url = ?, email = ?, display_order = ?, updated_at = ?
		 WHERE id = ?`,
		member.Name, member.Role, member.Department, member.Bio, member.ImageURL, member.GitHubURL,
		member.LinkedInURL, member.Email, member.DisplayOrder, member.UpdatedAt, member.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating team member %s: %w", member.ID, err)
	}
	return checkAffected(result, "team member", member.ID)
}

func (db *DB) DeleteTeamMember(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM team_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting team member %s: %w", id, err)
	}
	return checkAffected(result, "team member", id)
}

func (db *DB) CountTeamMembers(ctx context.Context) (int, error) {
	return db.count(ctx, "team_members")
}

// InsertSubscription returns apperror.ErrConflict when the email already has this type.
func (db *DB) InsertSubscription(ctx context.Context, sub *model.Subscription) error {
	sub.ID = xid.New().String()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = nowUTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO notification_subscriptions (id, email, notification_type, is_confirmed, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sub.ID, sub.Email, sub.Type, sub.Confirmed, sub.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("subscription", sub.Email+"/"+sub.Type)
	}
	if err != nil {
		return fmt.Errorf("sqlite: inserting subscription: %w", err)
	}
	return nil
}

// ListSubscriptions lists newest first; an empty subType lists every type.
func (db *DB) ListSubscriptions(ctx context.Context, subType string) ([]model.Subscription, error) {
	query := `SELECT id, email, notification_type, is_confirmed, created_at FROM notification_subscriptions`
	var args []any
	if subType != "" {
		query += ` WHERE notification_type = ?`
		args = append(args, subType)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.ID, &s.Email, &s.Type, &s.Confirmed, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating subscriptions: %w", err)
	}
	return subs, nil
}

func (db *DB) CountSubscriptions(ctx context.Context) (int, error) {
	return db.count(ctx, "notification_subscriptions")
}

func scanMerchandise(row rowScanner) (*model.Merchandise, error) {
	var (
		item  model.Merchandise
		price sql.NullFloat64
	)
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Category, &price,
		&item.ImageURL, &item.Available, &item.DisplayOrder, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if price.Valid {
		p := price.Float64
		item.Price = &p
	}
	return &item, nil
}

func scanTeamMember(row rowScanner) (*model.TeamMember, error) {
	var m model.TeamMember
	err := row.Scan(&m.ID, &m.Name, &m.Role, &m.Department, &m.Bio, &m.ImageURL,
		&m.GitHubURL, &m.LinkedInURL, &m.Email, &m.DisplayOrder, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func nullPrice(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
