// Package sqlite implements the repository interfaces on top of an embedded SQLite file.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the server builds without cgo.
// ":memory:" gives every test a private, empty database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	_ "modernc.org/sqlite"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

// compile-time check that *DB implements the full store
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
func New(dbPath string) (*DB, error) {
	// Connection pragmas go in the DSN so every pooled connection gets them, not just
	// the first one.
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate database, so the pool must never
	// open a second one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates every table idempotently and seeds the achievement catalog.
func (db *DB) migrate() error {
	statements := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL DEFAULT '',
				github_id     INTEGER,
				login         TEXT NOT NULL DEFAULT '',
				avatar_url    TEXT NOT NULL DEFAULT '',
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email) WHERE email <> '';
			CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id ON users(github_id) WHERE github_id IS NOT NULL;
		`},
		{"organizers", `
			CREATE TABLE IF NOT EXISTS organizers (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				full_name     TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL,
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`},
		// completed_at is unix milliseconds so range filters compare numerically.
		{"game_scores", `
			CREATE TABLE IF NOT EXISTS game_scores (
				id           TEXT PRIMARY KEY,
				user_id      TEXT NOT NULL,
				game_name    TEXT NOT NULL,
				score        INTEGER NOT NULL CHECK (score >= 0),
				time_taken   INTEGER,
				difficulty   TEXT NOT NULL DEFAULT '',
				completed_at INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_game_scores_user ON game_scores(user_id);
			CREATE INDEX IF NOT EXISTS idx_game_scores_game_completed ON game_scores(game_name, completed_at);
		`},
		{"achievements", `
			CREATE TABLE IF NOT EXISTS achievements (
				id          TEXT PRIMARY KEY,
				name        TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL DEFAULT '',
				badge_icon  TEXT NOT NULL DEFAULT '',
				category    TEXT NOT NULL DEFAULT ''
			);
			CREATE TABLE IF NOT EXISTS user_achievements (
				id             TEXT PRIMARY KEY,
				user_id        TEXT NOT NULL,
				achievement_id TEXT NOT NULL REFERENCES achievements(id),
				unlocked_at    DATETIME NOT NULL,
				UNIQUE (user_id, achievement_id)
			);
		`},
		{"events", `
			CREATE TABLE IF NOT EXISTS events (
				id               TEXT PRIMARY KEY,
				slug             TEXT NOT NULL UNIQUE,
				title            TEXT NOT NULL,
				description      TEXT NOT NULL DEFAULT '',
				event_date       DATETIME NOT NULL,
				location         TEXT NOT NULL DEFAULT '',
				image_url        TEXT NOT NULL DEFAULT '',
				event_type       TEXT NOT NULL DEFAULT 'Workshop',
				registration_url TEXT NOT NULL DEFAULT '',
				created_at       DATETIME NOT NULL,
				updated_at       DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date);
			CREATE TABLE IF NOT EXISTS event_registrations (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				event_id   TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL,
				UNIQUE (user_id, event_id)
			);
		`},
		{"merchandise", `
			CREATE TABLE IF NOT EXISTS merchandise (
				id            TEXT PRIMARY KEY,
				name          TEXT NOT NULL,
				description   TEXT NOT NULL DEFAULT '',
				category      TEXT NOT NULL DEFAULT 'Other',
				price         REAL,
				image_url     TEXT NOT NULL DEFAULT '',
				available     INTEGER NOT NULL DEFAULT 1,
				display_order INTEGER NOT NULL DEFAULT 0,
				created_at    DATETIME NOT NULL,
				updated_at    DATETIME NOT NULL
			);
		`},
		{"team_members", `
			CREATE TABLE IF NOT EXISTS team_members (
				id            TEXT PRIMARY KEY,
				name          TEXT NOT NULL,
				role          TEXT NOT NULL DEFAULT '',
				department    TEXT NOT NULL DEFAULT 'Core Team',
				bio           TEXT NOT NULL DEFAULT '',
				image_url     TEXT NOT NULL DEFAULT '',
				github_url    TEXT NOT NULL DEFAULT '',
				linkedin_url  TEXT NOT NULL DEFAULT '',
				email         TEXT NOT NULL DEFAULT '',
				display_order INTEGER NOT NULL DEFAULT 0,
				created_at    DATETIME NOT NULL,
				updated_at    DATETIME NOT NULL
			);
		`},
		{"notification_subscriptions", `
			CREATE TABLE IF NOT EXISTS notification_subscriptions (
				id                TEXT PRIMARY KEY,
				email             TEXT NOT NULL,
				notification_type TEXT NOT NULL,
				is_confirmed      INTEGER NOT NULL DEFAULT 1,
				created_at        DATETIME NOT NULL,
				UNIQUE (email, notification_type)
			);
		`},
	}

	for _, st := range statements {
		if _, err := db.conn.Exec(st.sql); err != nil {
			return fmt.Errorf("creating %s: %w", st.name, err)
		}
	}

	for _, a := range model.DefaultAchievements {
		_, err := db.conn.Exec(
			`INSERT OR IGNORE INTO achievements (id, name, description, badge_icon, category)
			 VALUES (?, ?, ?, ?, ?)`,
			xid.New().String(), a.Name, a.Description, a.BadgeIcon, a.Category,
		)
		if err != nil {
			return fmt.Errorf("seeding achievement %q: %w", a.Name, err)
		}
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// inClause returns "?, ?, ?" and the matching args for an IN (...) filter.
func inClause(values []string) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return strings.Join(placeholders, ", "), args
}

// checkAffected turns "0 rows affected" into a NotFound error.
func checkAffected(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

func (db *DB) count(ctx context.Context, table string) (int, error) {
	var n int
	// table is always a constant supplied by this package
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting %s: %w", table, err)
	}
	return n, nil
}

func (db *DB) countByUsers(ctx context.Context, table string, userIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	placeholders, args := inClause(userIDs)
	rows, err := db.conn.QueryContext(ctx,
		"SELECT user_id, COUNT(*) FROM "+table+" WHERE user_id IN ("+placeholders+") GROUP BY user_id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: counting %s by user: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			n      int
		)
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s count: %w", table, err)
		}
		counts[userID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s counts: %w", table, err)
	}
	return counts, nil
}

func notFoundOr(err error, resource, id, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, id)
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
