package supabase

import (
	"time"

	"github.com/hitk-robotics/club-portal/internal/model"
)

// Row types mirror the table columns in snake_case and convert to and from model types.

type scoreRow struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	GameName    string    `json:"game_name"`
	Score       int       `json:"score"`
	TimeTaken   *int64    `json:"time_taken"`
	Difficulty  string    `json:"difficulty"`
	CompletedAt time.Time `json:"completed_at"`
}

func (r scoreRow) toModel() model.ScoreRecord {
	return model.ScoreRecord{
		ID:          r.ID,
		UserID:      r.UserID,
		GameName:    r.GameName,
		Score:       r.Score,
		TimeTaken:   r.TimeTaken,
		Difficulty:  r.Difficulty,
		CompletedAt: r.CompletedAt.UTC(),
	}
}

type achievementRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	BadgeIcon   string `json:"badge_icon"`
	Category    string `json:"category"`
}

func (r achievementRow) toModel() model.Achievement {
	return model.Achievement{ID: r.ID, Name: r.Name, Description: r.Description, BadgeIcon: r.BadgeIcon, Category: r.Category}
}

type userAchievementRow struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	AchievementID string    `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

type userRow struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	GitHubID     *int64    `json:"github_id"`
	Login        string    `json:"login"`
	AvatarURL    string    `json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newUserRow(u *model.User) userRow {
	row := userRow{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Login:        u.Login,
		AvatarURL:    u.AvatarURL,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.GitHubID != 0 {
		id := u.GitHubID
		row.GitHubID = &id
	}
	return row
}

func (r userRow) toModel() model.User {
	u := model.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Login:        r.Login,
		AvatarURL:    r.AvatarURL,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.GitHubID != nil {
		u.GitHubID = *r.GitHubID
	}
	return u
}

type organizerRow struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

type eventRow struct {
	ID              string    `json:"id"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	EventDate       time.Time `json:"event_date"`
	Location        string    `json:"location"`
	ImageURL        string    `json:"image_url"`
	EventType       string    `json:"event_type"`
	RegistrationURL string    `json:"registration_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newEventRow(e *model.Event) eventRow {
	return eventRow{
		ID: e.ID, Slug: e.Slug, Title: e.Title, Description: e.Description, EventDate: e.EventDate,
		Location: e.Location, ImageURL: e.ImageURL, EventType: e.EventType,
		RegistrationURL: e.RegistrationURL, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
}

func (r eventRow) toModel() model.Event {
	return model.Event{
		ID: r.ID, Slug: r.Slug, Title: r.Title, Description: r.Description, EventDate: r.EventDate,
		Location: r.Location, ImageURL: r.ImageURL, EventType: r.EventType,
		RegistrationURL: r.RegistrationURL, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type registrationRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	EventID   string    `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
}

type merchandiseRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Price        *float64  `json:"price"`
	ImageURL     string    `json:"image_url"`
	Available    bool      `json:"available"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newMerchandiseRow(m *model.Merchandise) merchandiseRow {
	return merchandiseRow{
		ID: m.ID, Name: m.Name, Description: m.Description, Category: m.Category, Price: m.Price,
		ImageURL: m.ImageURL, Available: m.Available, DisplayOrder: m.DisplayOrder,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func (r merchandiseRow) toModel() model.Merchandise {
	return model.Merchandise{
		ID: r.ID, Name: r.Name, Description: r.Description, Category: r.Category, Price: r.Price,
		ImageURL: r.ImageURL, Available: r.Available, DisplayOrder: r.DisplayOrder,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type teamRow struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Department   string    `json:"department"`
	Bio          string    `json:"bio"`
	ImageURL     string    `json:"image_url"`
	GitHubURL    string    `json:"github_url"`
	LinkedInURL  string    `json:"linkedin_url"`
	Email        string    `json:"email"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newTeamRow(m *model.TeamMember) teamRow {
	return teamRow{
		ID: m.ID, Name: m.Name, Role: m.Role, Department: m.Department, Bio: m.Bio,
		ImageURL: m.ImageURL, GitHubURL: m.GitHubURL, LinkedInURL: m.LinkedInURL, Email: m.Email,
		DisplayOrder: m.DisplayOrder, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}

func (r teamRow) toModel() model.TeamMember {
	return model.TeamMember{
		ID: r.ID, Name: r.Name, Role: r.Role, Department: r.Department, Bio: r.Bio,
		ImageURL: r.ImageURL, GitHubURL: r.GitHubURL, LinkedInURL: r.LinkedInURL, Email: r.Email,
		DisplayOrder: r.DisplayOrder, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type subscriptionRow struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Type      string    `json:"notification_type"`
	Confirmed bool      `json:"is_confirmed"`
	CreatedAt time.Time `json:"created_at"`
}
