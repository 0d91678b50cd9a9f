package model

import "time"

// User is a club member account.
//
// Members sign in either with email/password (PasswordHash is a bcrypt hash, never the
// plaintext) or through GitHub OAuth (GitHubID is non-zero). Both can be set on one account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"githubId,omitempty"`
	Login        string    `json:"login,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Organizer is a club admin. Organizers are a separate credential store from members and
// are only ever created from configuration.
type Organizer struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
