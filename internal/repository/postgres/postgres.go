// Package postgres implements the repository interfaces on PostgreSQL through a pgx pool.
//
// It is the production backend when DATABASE_URL points at a managed Postgres (the club
// uses Supabase's database directly). Schema creation is idempotent and runs on New.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB is a Store backed by a pgx connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New connects using a postgres:// URL, verifies the connection and creates the schema.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing database URL: %w", err)
	}
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	db := &DB{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY,
    email         TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL DEFAULT '',
    github_id     BIGINT,
    login         TEXT NOT NULL DEFAULT '',
    avatar_url    TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email) WHERE email <> '';
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_github_id ON users(github_id) WHERE github_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS organizers (
    id            UUID PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    full_name     TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS game_scores (
    id           UUID PRIMARY KEY,
    user_id      TEXT NOT NULL,
    game_name    TEXT NOT NULL,
    score        INTEGER NOT NULL CHECK (score >= 0),
    time_taken   BIGINT,
    difficulty   TEXT NOT NULL DEFAULT '',
    completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_game_scores_user ON game_scores(user_id);
CREATE INDEX IF NOT EXISTS idx_game_scores_game_completed ON game_scores(game_name, completed_at DESC);

CREATE TABLE IF NOT EXISTS achievements (
    id          UUID PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    badge_icon  TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS user_achievements (
    id             UUID PRIMARY KEY,
    user_id        TEXT NOT NULL,
    achievement_id UUID NOT NULL REFERENCES achievements(id),
    unlocked_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, achievement_id)
);

CREATE TABLE IF NOT EXISTS events (
    id               UUID PRIMARY KEY,
    slug             TEXT NOT NULL UNIQUE,
    title            TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    event_date       TIMESTAMPTZ NOT NULL,
    location         TEXT NOT NULL DEFAULT '',
    image_url        TEXT NOT NULL DEFAULT '',
    event_type       TEXT NOT NULL DEFAULT 'Workshop',
    registration_url TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date);

CREATE TABLE IF NOT EXISTS event_registrations (
    id         UUID PRIMARY KEY,
    user_id    TEXT NOT NULL,
    event_id   UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, event_id)
);

CREATE TABLE IF NOT EXISTS merchandise (
    id            UUID PRIMARY KEY,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    category      TEXT NOT NULL DEFAULT 'Other',
    price         DOUBLE PRECISION,
    image_url     TEXT NOT NULL DEFAULT '',
    available     BOOLEAN NOT NULL DEFAULT TRUE,
    display_order INTEGER NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS team_members (
    id            UUID PRIMARY KEY,
    name          TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT '',
    department    TEXT NOT NULL DEFAULT 'Core Team',
    bio           TEXT NOT NULL DEFAULT '',
    image_url     TEXT NOT NULL DEFAULT '',
    github_url    TEXT NOT NULL DEFAULT '',
    linkedin_url  TEXT NOT NULL DEFAULT '',
    email         TEXT NOT NULL DEFAULT '',
    display_order INTEGER NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS notification_subscriptions (
    id                UUID PRIMARY KEY,
    email             TEXT NOT NULL,
    notification_type TEXT NOT NULL CHECK (notification_type IN ('events', 'merch')),
    is_confirmed      BOOLEAN NOT NULL DEFAULT TRUE,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (email, notification_type)
);
`

func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	batch := &pgx.Batch{}
	for _, a := range model.DefaultAchievements {
		batch.Queue(
			`INSERT INTO achievements (id, name, description, badge_icon, category)
			 VALUES ($1, $2, $3, $4, $5) ON CONFLICT (name) DO NOTHING`,
			uuid.NewString(), a.Name, a.Description, a.BadgeIcon, a.Category,
		)
	}
	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seeding achievements: %w", err)
	}
	return nil
}

// isUniqueViolation checks for SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// isForeignKeyViolation checks for SQLSTATE 23503.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// isInvalidID reports a malformed UUID literal (SQLSTATE 22P02). Looking up "abc" as an id
// is a miss, not a server error.
func isInvalidID(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "22P02"
	}
	return false
}

func notFoundOr(err error, resource, id, op string) error {
	if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
		return apperror.NotFound(resource, id)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}

func checkAffected(tag pgconn.CommandTag, resource, id string) error {
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

func (db *DB) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: counting %s: %w", table, err)
	}
	return n, nil
}

func (db *DB) countByUsers(ctx context.Context, table string, userIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	rows, err := db.pool.Query(ctx,
		"SELECT user_id, COUNT(*) FROM "+table+" WHERE user_id = ANY($1) GROUP BY user_id", userIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres: counting %s by user: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			n      int
		)
		if err := rows.Scan(&userID, &n); err != nil {
			return nil, fmt.Errorf("postgres: scanning %s count: %w", table, err)
		}
		counts[userID] = n
	}
	return counts, rows.Err()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
