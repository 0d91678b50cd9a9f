// Package session keeps the server-side record of who is logged in.
//
// A token is only honoured while its session exists here, which is what lets logout and
// password changes revoke tokens that have not expired yet.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is one login of a member or organizer.
type Session struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store is implemented by RedisStore and MemoryStore.
type Store interface {
	Create(ctx context.Context, subject, role string, ttl time.Duration) (*Session, error)
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	// DeleteAllForSubject revokes every session of one member, e.g. after a password change.
	DeleteAllForSubject(ctx context.Context, subject string) error
	Close() error
}

func newSession(subject, role string, ttl time.Duration, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Subject:   subject,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}
