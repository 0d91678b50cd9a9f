package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

const userColumns = `id, email, password_hash, github_id, login, avatar_url, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := nowUTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		nullGitHubID(user.GitHubID),
		user.Login,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("user", user.Email)
	}
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// UpsertGitHubUser inserts or refreshes a member signing in through GitHub.
//
// Lookup order: an account already linked to the GitHub ID wins; otherwise an account
// with the same email gets the GitHub ID attached; otherwise a new row is created.
// The existing internal ID is always kept so scores stay attached to the member.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	existing, err := db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, user.GitHubID))
	if errors.Is(err, sql.ErrNoRows) && user.Email != "" {
		existing, err = db.scanUser(db.conn.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = ?`, user.Email))
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
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

	_, err = db.conn.ExecContext(ctx,
		`UPDATE users SET github_id = ?, login = ?, email = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
		user.GitHubID, user.Login, user.Email, user.AvatarURL, user.UpdatedAt, user.ID,
	)
	if isUniqueViolation(err) {
		return apperror.Conflict("user", user.Email)
	}
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := db.scanUser(db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundOr(err, "user", id, "getting user "+id)
	}
	return user, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := db.scanUser(db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, notFoundOr(err, "user", email, "getting user by email")
	}
	return user, nil
}

// GetUsersByIDs resolves many users in one query. Unknown ids are simply absent from the map.
func (db *DB) GetUsersByIDs(ctx context.Context, ids []string) (map[string]model.User, error) {
	users := make(map[string]model.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	placeholders, args := inClause(ids)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting users by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := db.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user: %w", err)
		}
		users[u.ID] = *u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

func (db *DB) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, nowUTC(), userID)
	if err != nil {
		return fmt.Errorf("sqlite: updating password of user %s: %w", userID, err)
	}
	return checkAffected(result, "user", userID)
}

// UpsertOrganizer creates the organizer or replaces name and hash for an existing email.
func (db *DB) UpsertOrganizer(ctx context.Context, org *model.Organizer) error {
	if org.ID == "" {
		org.ID = xid.New().String()
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = nowUTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO organizers (id, email, full_name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET full_name = excluded.full_name, password_hash = excluded.password_hash`,
		org.ID, org.Email, org.FullName, org.PasswordHash, org.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting organizer %s: %w", org.Email, err)
	}

	stored, err := db.GetOrganizerByEmail(ctx, org.Email)
	if err != nil {
		return err
	}
	*org = *stored
	return nil
}

func (db *DB) GetOrganizerByEmail(ctx context.Context, email string) (*model.Organizer, error) {
	var o model.Organizer
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, full_name, password_hash, created_at FROM organizers WHERE email = ?`, email,
	).Scan(&o.ID, &o.Email, &o.FullName, &o.PasswordHash, &o.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "organizer", email, "getting organizer")
	}
	return &o, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (db *DB) scanUser(row rowScanner) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &githubID, &u.Login, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.GitHubID = githubID.Int64
	return &u, nil
}

func nullGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

