package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

const userColumns = `id, email, password_hash, github_id, login, avatar_url, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := nowUTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, user.PasswordHash, githubIDArg(user.GitHubID),
		user.Login, user.AvatarURL, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("user", user.Email)
	}
	if err != nil {
		return fmt.Errorf("postgres: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// UpsertGitHubUser links by GitHub ID first, then by email, and otherwise creates the member.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	existing, err := scanUser(db.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = $1`, user.GitHubID))
	if errors.Is(err, pgx.ErrNoRows) && user.Email != "" {
		existing, err = scanUser(db.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, user.Email))
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("postgres: looking up user by github_id %d: %w", user.GitHubID, err)
	}
	if existing == nil {
		return db.CreateUser(ctx, user)
	}

	user.ID = existing.ID
	user.PasswordHash = existing.PasswordHash
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = nowUTC()
	if user.Email == "" {
		user.Email = existing.Email
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE users SET github_id = $1, login = $2, email = $3, avatar_url = $4, updated_at = $5 WHERE id = $6`,
		user.GitHubID, user.Login, user.Email, user.AvatarURL, user.UpdatedAt, user.ID,
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("user", user.Email)
	}
	if err != nil {
		return fmt.Errorf("postgres: updating user %s: %w", user.ID, err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound("user", id)
	}
	user, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "user", id, "getting user "+id)
	}
	return user, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, notFoundOr(err, "user", email, "getting user by email")
	}
	return user, nil
}

// GetUsersByIDs skips ids that are not UUIDs instead of failing the whole batch; such
// ids cannot exist in this table anyway.
func (db *DB) GetUsersByIDs(ctx context.Context, ids []string) (map[string]model.User, error) {
	users := make(map[string]model.User, len(ids))

	valid := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(id); err == nil {
			valid = append(valid, u)
		}
	}
	if len(valid) == 0 {
		return users, nil
	}

	rows, err := db.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, valid)
	if err != nil {
		return nil, fmt.Errorf("postgres: getting users by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning user: %w", err)
		}
		users[u.ID] = *u
	}
	return users, rows.Err()
}

func (db *DB) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return apperror.NotFound("user", userID)
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, hash, nowUTC(), userID)
	if err != nil {
		return fmt.Errorf("postgres: updating password of user %s: %w", userID, err)
	}
	return checkAffected(tag, "user", userID)
}

func (db *DB) UpsertOrganizer(ctx context.Context, org *model.Organizer) error {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = nowUTC()
	}

	err := db.pool.QueryRow(ctx,
		`INSERT INTO organizers (id, email, full_name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name, password_hash = EXCLUDED.password_hash
		 RETURNING id, created_at`,
		org.ID, org.Email, org.FullName, org.PasswordHash, org.CreatedAt,
	).Scan(&org.ID, &org.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: upserting organizer %s: %w", org.Email, err)
	}
	return nil
}

func (db *DB) GetOrganizerByEmail(ctx context.Context, email string) (*model.Organizer, error) {
	var o model.Organizer
	err := db.pool.QueryRow(ctx,
		`SELECT id, email, full_name, password_hash, created_at FROM organizers WHERE email = $1`, email,
	).Scan(&o.ID, &o.Email, &o.FullName, &o.PasswordHash, &o.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "organizer", email, "getting organizer")
	}
	return &o, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u        model.User
		githubID *int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &githubID, &u.Login, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if githubID != nil {
		u.GitHubID = *githubID
	}
	return &u, nil
}

func githubIDArg(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
