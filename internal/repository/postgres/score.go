package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

const scoreColumns = `id, user_id, game_name, score, time_taken, difficulty, completed_at`

func (db *DB) InsertScore(ctx context.Context, record *model.ScoreRecord) error {
	record.ID = uuid.NewString()
	if record.CompletedAt.IsZero() {
		record.CompletedAt = nowUTC()
	}
	// Postgres keeps microseconds; milliseconds keeps every backend identical.
	record.CompletedAt = record.CompletedAt.UTC().Truncate(time.Millisecond)

	_, err := db.pool.Exec(ctx,
		`INSERT INTO game_scores (`+scoreColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.UserID, record.GameName, record.Score, record.TimeTaken, record.Difficulty, record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: inserting score for user %s: %w", record.UserID, err)
	}
	return nil
}

func (db *DB) ListScores(ctx context.Context, filter repository.ScoreFilter) ([]model.ScoreRecord, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, clause+" $"+strconv.Itoa(len(args)))
	}
	if filter.UserID != "" {
		add("user_id =", filter.UserID)
	}
	if filter.GameName != "" {
		add("game_name =", filter.GameName)
	}
	if !filter.Since.IsZero() {
		add("completed_at >=", filter.Since)
	}

	query := `SELECT ` + scoreColumns + ` FROM game_scores`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY completed_at DESC, id DESC"

	return db.queryScores(ctx, query, args...)
}

func (db *DB) TopScores(ctx context.Context, gameName string, since time.Time, limit int) ([]model.ScoreRecord, error) {
	return db.queryScores(ctx,
		`SELECT `+scoreColumns+` FROM game_scores
		 WHERE game_name = $1 AND completed_at >= $2
		 ORDER BY score DESC, completed_at ASC, id ASC
		 LIMIT $3`,
		gameName, since, limit,
	)
}

func (db *DB) DistinctScoreUsers(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT DISTINCT user_id FROM game_scores ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing score users: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: collecting score users: %w", err)
	}
	return ids, nil
}

func (db *DB) CountScores(ctx context.Context) (int, error) {
	return db.count(ctx, "game_scores")
}

func (db *DB) queryScores(ctx context.Context, query string, args ...any) ([]model.ScoreRecord, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: querying scores: %w", err)
	}
	defer rows.Close()

	records := []model.ScoreRecord{}
	for rows.Next() {
		var r model.ScoreRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.GameName, &r.Score, &r.TimeTaken, &r.Difficulty, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning score: %w", err)
		}
		r.CompletedAt = r.CompletedAt.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating scores: %w", err)
	}
	return records, nil
}
