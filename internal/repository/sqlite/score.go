package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

// InsertScore appends a score record. The ID is generated here; CompletedAt is kept as
// given (truncated to milliseconds) so callers control the clock.
func (db *DB) InsertScore(ctx context.Context, record *model.ScoreRecord) error {
	record.ID = xid.New().String()
	if record.CompletedAt.IsZero() {
		record.CompletedAt = nowUTC()
	}
	record.CompletedAt = record.CompletedAt.UTC().Truncate(time.Millisecond)

	var timeTaken sql.NullInt64
	if record.TimeTaken != nil {
		timeTaken = sql.NullInt64{Int64: *record.TimeTaken, Valid: true}
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO game_scores (id, user_id, game_name, score, time_taken, difficulty, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.GameName,
		record.Score,
		timeTaken,
		record.Difficulty,
		record.CompletedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting score for user %s: %w", record.UserID, err)
	}
	return nil
}

// ListScores returns every record matching filter, newest first.
//
// The WHERE clause is built from fixed fragments; only the values travel as parameters.
func (db *DB) ListScores(ctx context.Context, filter repository.ScoreFilter) ([]model.ScoreRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.GameName != "" {
		where = append(where, "game_name = ?")
		args = append(args, filter.GameName)
	}
	if !filter.Since.IsZero() {
		where = append(where, "completed_at >= ?")
		args = append(args, filter.Since.UnixMilli())
	}

	query := `SELECT id, user_id, game_name, score, time_taken, difficulty, completed_at FROM game_scores`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY completed_at DESC, id DESC"

	return db.queryScores(ctx, query, args...)
}

func (db *DB) TopScores(ctx context.Context, gameName string, since time.Time, limit int) ([]model.ScoreRecord, error) {
	return db.queryScores(ctx,
		`SELECT id, user_id, game_name, score, time_taken, difficulty, completed_at
		 FROM game_scores
		 WHERE game_name = ? AND completed_at >= ?
		 ORDER BY score DESC, completed_at ASC, id ASC
		 LIMIT ?`,
		gameName, since.UnixMilli(), limit,
	)
}

func (db *DB) DistinctScoreUsers(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT user_id FROM game_scores ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing score users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning score user: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating score users: %w", err)
	}
	return ids, nil
}

func (db *DB) CountScores(ctx context.Context) (int, error) {
	return db.count(ctx, "game_scores")
}

func (db *DB) queryScores(ctx context.Context, query string, args ...any) ([]model.ScoreRecord, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying scores: %w", err)
	}
	defer rows.Close()

	records := []model.ScoreRecord{}
	for rows.Next() {
		var (
			r           model.ScoreRecord
			timeTaken   sql.NullInt64
			completedAt int64
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.GameName, &r.Score, &timeTaken, &r.Difficulty, &completedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning score: %w", err)
		}
		if timeTaken.Valid {
			v := timeTaken.Int64
			r.TimeTaken = &v
		}
		r.CompletedAt = time.UnixMilli(completedAt).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating scores: %w", err)
	}
	return records, nil
}
