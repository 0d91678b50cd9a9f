// Package supabase implements the repository interfaces over Supabase's REST API
// (PostgREST) with supabase-go.
//
// The tables are the ones repository/postgres creates; this backend never runs DDL.
// PostgREST here only filters, so ordering, limits and counts happen in Go.
package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	supa "github.com/nedpals/supabase-go"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB is a Store that talks to the Supabase REST endpoint.
type DB struct {
	client *supa.Client
}

// New builds a client for the project at url. key is the service-role key; the anon key
// cannot read other members' rows once RLS is on.
func New(url, key string) (*DB, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase: url and key are required")
	}
	return &DB{client: supa.CreateClient(url, key)}, nil
}

// Close is a no-op; the client holds only an http.Client.
func (db *DB) Close() error { return nil }

// Ping reads one achievement row to prove the URL, key and schema are usable.
func (db *DB) Ping(ctx context.Context) error {
	var rows []achievementRow
	if err := db.client.DB.From(tableAchievements).Select("id").Execute(&rows); err != nil {
		return fmt.Errorf("supabase: ping: %w", err)
	}
	return nil
}

const (
	tableUsers            = "users"
	tableOrganizers       = "organizers"
	tableScores           = "game_scores"
	tableAchievements     = "achievements"
	tableUserAchievements = "user_achievements"
	tableEvents           = "events"
	tableRegistrations    = "event_registrations"
	tableMerchandise      = "merchandise"
	tableTeam             = "team_members"
	tableSubscriptions    = "notification_subscriptions"
)

// PostgREST forwards the Postgres error body, so the SQLSTATE shows up in the message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23503")
}

// inList renders values as a PostgREST in-list: ("a","b").
func inList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return "(" + strings.Join(quoted, ",") + ")"
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func (db *DB) count(table string) (int, error) {
	var rows []struct {
		ID string `json:"id"`
	}
	if err := db.client.DB.From(table).Select("id").Execute(&rows); err != nil {
		return 0, fmt.Errorf("supabase: counting %s: %w", table, err)
	}
	return len(rows), nil
}

func (db *DB) countByUsers(table string, userIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		UserID string `json:"user_id"`
	}
	err := db.client.DB.From(table).Select("user_id").Filter("user_id", "in", inList(userIDs)).Execute(&rows)
	if err != nil {
		return nil, fmt.Errorf("supabase: counting %s by user: %w", table, err)
	}
	for _, r := range rows {
		counts[r.UserID]++
	}
	return counts, nil
}

func notFound(resource, id string) error {
	return apperror.NotFound(resource, id)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
