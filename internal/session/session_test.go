package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	s, err := m.Create(ctx, "u1", "member", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "u1", s.Subject)

	ok, err := m.Exists(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Delete(ctx, s.ID))
	ok, _ = m.Exists(ctx, s.ID)
	assert.False(t, ok)
}

func TestMemoryStore_ExpiredSessionIsGone(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	s, _ := m.Create(ctx, "u1", "member", time.Minute)

	now = now.Add(2 * time.Minute)
	ok, _ := m.Exists(ctx, s.ID)
	assert.False(t, ok, "an expired session must not authenticate")

	assert.Equal(t, 1, m.Purge(now))
	assert.Equal(t, 0, m.Len())
}

func TestMemoryStore_DeleteAllForSubject(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	a, _ := m.Create(ctx, "u1", "member", time.Hour)
	b, _ := m.Create(ctx, "u1", "member", time.Hour)
	other, _ := m.Create(ctx, "u2", "member", time.Hour)

	require.NoError(t, m.DeleteAllForSubject(ctx, "u1"))

	for _, id := range []string{a.ID, b.ID} {
		ok, _ := m.Exists(ctx, id)
		assert.False(t, ok)
	}
	ok, _ := m.Exists(ctx, other.ID)
	assert.True(t, ok, "other members keep their sessions")
}

func TestRedisKeys(t *testing.T) {
	assert.Equal(t, "session:abc", sessionKey("abc"))
	assert.Equal(t, "session:subject:u1", subjectKey("u1"))
}

func TestNewRedisStore_BadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url")
	assert.Error(t, err)
}
