package supabase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hitk-robotics/club-portal/internal/model"
	"github.com/hitk-robotics/club-portal/internal/repository"
)

func (db *DB) InsertScore(ctx context.Context, record *model.ScoreRecord) error {
	record.ID = uuid.NewString()
	if record.CompletedAt.IsZero() {
		record.CompletedAt = nowUTC()
	}
	record.CompletedAt = record.CompletedAt.UTC().Truncate(time.Millisecond)

	row := scoreRow{
		ID:          record.ID,
		UserID:      record.UserID,
		GameName:    record.GameName,
		Score:       record.Score,
		TimeTaken:   record.TimeTaken,
		Difficulty:  record.Difficulty,
		CompletedAt: record.CompletedAt,
	}
	var inserted []scoreRow
	if err := db.client.DB.From(tableScores).Insert(row).Execute(&inserted); err != nil {
		return fmt.Errorf("supabase: inserting score for user %s: %w", record.UserID, err)
	}
	return nil
}

// ListScores pushes the most selective filter to PostgREST and applies the rest in Go.
func (db *DB) ListScores(ctx context.Context, filter repository.ScoreFilter) ([]model.ScoreRecord, error) {
	var (
		rows []scoreRow
		err  error
	)
	table := db.client.DB.From(tableScores)
	switch {
	case filter.UserID != "":
		err = table.Select("*").Eq("user_id", filter.UserID).Execute(&rows)
	case filter.GameName != "":
		err = table.Select("*").Eq("game_name", filter.GameName).Execute(&rows)
	case !filter.Since.IsZero():
		err = table.Select("*").Filter("completed_at", "gte", timestamp(filter.Since)).Execute(&rows)
	default:
		err = table.Select("*").Execute(&rows)
	}
	if err != nil {
		return nil, fmt.Errorf("supabase: listing scores: %w", err)
	}

	records := make([]model.ScoreRecord, 0, len(rows))
	for _, r := range rows {
		rec := r.toModel()
		if filter.UserID != "" && rec.UserID != filter.UserID {
			continue
		}
		if filter.GameName != "" && rec.GameName != filter.GameName {
			continue
		}
		if !filter.Since.IsZero() && rec.CompletedAt.Before(filter.Since) {
			continue
		}
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CompletedAt.Equal(records[j].CompletedAt) {
			return records[i].CompletedAt.After(records[j].CompletedAt)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}

func (db *DB) TopScores(ctx context.Context, gameName string, since time.Time, limit int) ([]model.ScoreRecord, error) {
	var rows []scoreRow
	err := db.client.DB.From(tableScores).Select("*").
		Eq("game_name", gameName).
		Filter("completed_at", "gte", timestamp(since)).
		Execute(&rows)
	if err != nil {
		return nil, fmt.Errorf("supabase: listing top scores of %s: %w", gameName, err)
	}

	records := toScores(rows)
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CompletedAt.Equal(b.CompletedAt) {
			return a.CompletedAt.Before(b.CompletedAt)
		}
		return a.ID < b.ID
	})
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (db *DB) DistinctScoreUsers(ctx context.Context) ([]string, error) {
	var rows []struct {
		UserID string `json:"user_id"`
	}
	if err := db.client.DB.From(tableScores).Select("user_id").Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: listing score users: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	ids := []string{}
	for _, r := range rows {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (db *DB) CountScores(ctx context.Context) (int, error) {
	return db.count(tableScores)
}

func toScores(rows []scoreRow) []model.ScoreRecord {
	records := make([]model.ScoreRecord, len(rows))
	for i, r := range rows {
		records[i] = r.toModel()
	}
	return records
}
