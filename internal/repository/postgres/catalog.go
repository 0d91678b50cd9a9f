package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

const merchColumns = `id, name, description, category, price, image_url, available, display_order, created_at, updated_at`

func (db *DB) CreateMerchandise(ctx context.Context, item *model.Merchandise) error {
	now := nowUTC()
	item.ID = uuid.NewString()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO merchandise (`+merchColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		item.ID, item.Name, item.Description, item.Category, item.Price, item.ImageURL,
		item.Available, item.DisplayOrder, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: inserting merchandise %q: %w", item.Name, err)
	}
	return nil
}

func (db *DB) GetMerchandiseByID(ctx context.Context, id string) (*model.Merchandise, error) {
	item, err := scanMerchandise(db.pool.QueryRow(ctx, `SELECT `+merchColumns+` FROM merchandise WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "merchandise", id, "getting merchandise "+id)
	}
	return item, nil
}

func (db *DB) ListMerchandise(ctx context.Context, onlyAvailable bool) ([]model.Merchandise, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+merchColumns+` FROM merchandise
		 WHERE available OR NOT $1
		 ORDER BY display_order ASC, name ASC`,
		onlyAvailable,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing merchandise: %w", err)
	}
	defer rows.Close()

	items := []model.Merchandise{}
	for rows.Next() {
		item, err := scanMerchandise(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning merchandise: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (db *DB) UpdateMerchandise(ctx context.Context, item *model.Merchandise) error {
	item.UpdatedAt = nowUTC()
	tag, err := db.pool.Exec(ctx,
		`UPDATE merchandise
		 SET name = $1, description = $2, category = $3, price = $4, image_url = $5, available = $6,
		     display_order = $7, updated_at = $8
		 WHERE id = $9`,
		item.Name, item.Description, item.Category, item.Price, item.ImageURL, item.Available,
		item.DisplayOrder, item.UpdatedAt, item.ID,
	)
	if isInvalidID(err) {
		return apperror.NotFound("merchandise", item.ID)
	}
	if err != nil {
		return fmt.Errorf("postgres: updating merchandise %s: %w", item.ID, err)
	}
	return checkAffected(tag, "merchandise", item.ID)
}

func (db *DB) DeleteMerchandise(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM merchandise WHERE id = $1`, id)
	if isInvalidID(err) {
		return apperror.NotFound("merchandise", id)
	}
	if err != nil {
		return fmt.Errorf("postgres: deleting merchandise %s: %w", id, err)
	}
	return checkAffected(tag, "merchandise", id)
}

func (db *DB) CountMerchandise(ctx context.Context) (int, error) {
	return db.count(ctx, "merchandise")
}

const teamColumns = `id, name, role, department, bio, image_url, github_url, linkedin_url, email, display_order, created_at, updated_at`

func (db *DB) CreateTeamMember(ctx context.Context, member *model.TeamMember) error {
	now := nowUTC()
	member.ID = uuid.NewString()
	member.CreatedAt = now
	member.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO team_members (`+teamColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		member.ID, member.Name, member.Role, member.Department, member.Bio, member.ImageURL,
		member.GitHubURL, member.LinkedInURL, member.Email, member.DisplayOrder,
		member.CreatedAt, member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: inserting team member %q: %w", member.Name, err)
	}
	return nil
}

func (db *DB) GetTeamMemberByID(ctx context.Context, id string) (*model.TeamMember, error) {
	m, err := scanTeamMember(db.pool.QueryRow(ctx, `SELECT `+teamColumns+` FROM team_members WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "team member", id, "getting team member "+id)
	}
	return m, nil
}

func (db *DB) ListTeamMembers(ctx context.Context) ([]model.TeamMember, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+teamColumns+` FROM team_members ORDER BY display_order ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing team members: %w", err)
	}
	defer rows.Close()

	members := []model.TeamMember{}
	for rows.Next() {
		m, err := scanTeamMember(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning team member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (db *DB) UpdateTeamMember(ctx context.Context, member *model.TeamMember) error {
	member.UpdatedAt = nowUTC()
	tag, err := db.pool.Exec(ctx,
		`UPDATE team_members
		 SET name = $1, role = $2, department = $3, bio = $4, image_url = $5, github_url = $6,
		     linkedin_url = $7, email = $8, display_order = $9, updated_at = $10
		 WHERE id = $11`,
		member.Name, member.Role, member.Department, member.Bio, member.ImageURL, member.GitHubURL,
		member.LinkedInURL, member.Email, member.DisplayOrder, member.UpdatedAt, member.ID,
	)
	if isInvalidID(err) {
		return apperror.NotFound("team member", member.ID)
	}
	if err != nil {
		return fmt.Errorf("postgres: updating team member %s: %w", member.ID, err)
	}
	return checkAffected(tag, "team member", member.ID)
}

func (db *DB) DeleteTeamMember(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM team_members WHERE id = $1`, id)
	if isInvalidID(err) {
		return apperror.NotFound("team member", id)
	}
	if err != nil {
		return fmt.Errorf("postgres: deleting team member %s: %w", id, err)
	}
	return checkAffected(tag, "team member", id)
}

func (db *DB) CountTeamMembers(ctx context.Context) (int, error) {
	return db.count(ctx, "team_members")
}

func (db *DB) InsertSubscription(ctx context.Context, sub *model.Subscription) error {
	sub.ID = uuid.NewString()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = nowUTC()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO notification_subscriptions (id, email, notification_type, is_confirmed, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.Email, sub.Type, sub.Confirmed, sub.CreatedAt,
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("subscription", sub.Email+"/"+sub.Type)
	}
	if err != nil {
		return fmt.Errorf("postgres: inserting subscription: %w", err)
	}
	return nil
}

func (db *DB) ListSubscriptions(ctx context.Context, subType string) ([]model.Subscription, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, email, notification_type, is_confirmed, created_at FROM notification_subscriptions
		 WHERE $1 = '' OR notification_type = $1
		 ORDER BY created_at DESC, id DESC`,
		subType,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.ID, &s.Email, &s.Type, &s.Confirmed, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func (db *DB) CountSubscriptions(ctx context.Context) (int, error) {
	return db.count(ctx, "notification_subscriptions")
}

func scanMerchandise(row pgx.Row) (*model.Merchandise, error) {
	var item model.Merchandise
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Category, &item.Price,
		&item.ImageURL, &item.Available, &item.DisplayOrder, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func scanTeamMember(row pgx.Row) (*model.TeamMember, error) {
	var m model.TeamMember
	err := row.Scan(&m.ID, &m.Name, &m.Role, &m.Department, &m.Bio, &m.ImageURL,
		&m.GitHubURL, &m.LinkedInURL, &m.Email, &m.DisplayOrder, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
