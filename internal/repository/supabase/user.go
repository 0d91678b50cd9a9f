package supabase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitk-robotics/club-portal/internal/apperror"
	"github.com/hitk-robotics/club-portal/internal/model"
)

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := nowUTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	var inserted []userRow
	err := db.client.DB.From(tableUsers).Insert(newUserRow(user)).Execute(&inserted)
	if isUniqueViolation(err) {
		return apperror.Conflict("user", user.Email)
	}
	if err != nil {
		return fmt.Errorf("supabase: inserting user %s: %w", user.Email, err)
	}
	return nil
}

func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	existing, err := db.findUser("github_id", fmt.Sprint(user.GitHubID))
	if err != nil {
		return err
	}
	if existing == nil && user.Email != "" {
		if existing, err = db.findUser("email", user.Email); err != nil {
			return err
		}
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

	err = db.client.DB.From(tableUsers).Update(map[string]interface{}{
		"github_id":  user.GitHubID,
		"login":      user.Login,
		"email":      user.Email,
		"avatar_url": user.AvatarURL,
		"updated_at": timestamp(user.UpdatedAt),
	}).Eq("id", user.ID).Execute(nil)
	if isUniqueViolation(err) {
		return apperror.Conflict("user", user.Email)
	}
	if err != nil {
		return fmt.Errorf("supabase: updating user %s: %w", user.ID, err)
	}
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound("user", id)
	}
	u, err := db.findUser("id", id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("user", id)
	}
	return u, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := db.findUser("email", email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, notFound("user", email)
	}
	return u, nil
}

func (db *DB) GetUsersByIDs(ctx context.Context, ids []string) (map[string]model.User, error) {
	users := make(map[string]model.User, len(ids))

	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return users, nil
	}

	var rows []userRow
	if err := db.client.DB.From(tableUsers).Select("*").Filter("id", "in", inList(valid)).Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: getting users by id: %w", err)
	}
	for _, r := range rows {
		users[r.ID] = r.toModel()
	}
	return users, nil
}

func (db *DB) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	if _, err := db.GetUserByID(ctx, userID); err != nil {
		return err
	}
	err := db.client.DB.From(tableUsers).Update(map[string]interface{}{
		"password_hash": hash,
		"updated_at":    timestamp(nowUTC()),
	}).Eq("id", userID).Execute(nil)
	if err != nil {
		return fmt.Errorf("supabase: updating password of user %s: %w", userID, err)
	}
	return nil
}

func (db *DB) UpsertOrganizer(ctx context.Context, org *model.Organizer) error {
	existing, err := db.GetOrganizerByEmail(ctx, org.Email)
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}

	if existing != nil {
		org.ID = existing.ID
		org.CreatedAt = existing.CreatedAt
		err = db.client.DB.From(tableOrganizers).Update(map[string]interface{}{
			"full_name":     org.FullName,
			"password_hash": org.PasswordHash,
		}).Eq("id", org.ID).Execute(nil)
		if err != nil {
			return fmt.Errorf("supabase: updating organizer %s: %w", org.Email, err)
		}
		return nil
	}

	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = nowUTC()
	}
	row := organizerRow{ID: org.ID, Email: org.Email, FullName: org.FullName, PasswordHash: org.PasswordHash, CreatedAt: org.CreatedAt}
	var inserted []organizerRow
	if err := db.client.DB.From(tableOrganizers).Insert(row).Execute(&inserted); err != nil {
		return fmt.Errorf("supabase: inserting organizer %s: %w", org.Email, err)
	}
	return nil
}

func (db *DB) GetOrganizerByEmail(ctx context.Context, email string) (*model.Organizer, error) {
	var rows []organizerRow
	if err := db.client.DB.From(tableOrganizers).Select("*").Eq("email", email).Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: getting organizer: %w", err)
	}
	if len(rows) == 0 {
		return nil, notFound("organizer", email)
	}
	r := rows[0]
	return &model.Organizer{ID: r.ID, Email: r.Email, FullName: r.FullName, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt}, nil
}

// findUser returns nil, nil when no row matches.
func (db *DB) findUser(column, value string) (*model.User, error) {
	var rows []userRow
	if err := db.client.DB.From(tableUsers).Select("*").Eq(column, value).Execute(&rows); err != nil {
		return nil, fmt.Errorf("supabase: looking up user by %s: %w", column, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	u := rows[0].toModel()
	return &u, nil
}
