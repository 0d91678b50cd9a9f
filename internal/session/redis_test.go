package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return mr, r
}

func TestRedisStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	mr, r := newTestRedis(t)

	s, err := r.Create(ctx, "u1", "member", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "member", s.Role)

	assert.True(t, mr.Exists(sessionKey(s.ID)))
	ok, err := mr.SIsMember(subjectKey("u1"), s.ID)
	require.NoError(t, err)
	assert.True(t, ok, "the session is indexed under its subject")
	assert.Equal(t, time.Hour, mr.TTL(sessionKey(s.ID)))

	ok, err = r.Exists(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Delete(ctx, s.ID))
	ok, err = r.Exists(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_EmptyIDDoesNotExist(t *testing.T) {
	_, r := newTestRedis(t)
	ok, err := r.Exists(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	ctx := context.Background()
	mr, r := newTestRedis(t)

	s, err := r.Create(ctx, "u1", "member", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	ok, err := r.Exists(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, ok, "an expired session must not authenticate")
	assert.False(t, mr.Exists(subjectKey("u1")), "the subject index expires with its newest session")
}

func TestRedisStore_DeleteAllForSubject(t *testing.T) {
	ctx := context.Background()
	mr, r := newTestRedis(t)

	a, err := r.Create(ctx, "u1", "member", time.Hour)
	require.NoError(t, err)
	b, err := r.Create(ctx, "u1", "member", time.Hour)
	require.NoError(t, err)
	other, err := r.Create(ctx, "u2", "member", time.Hour)
	require.NoError(t, err)

	require.NoError(t, r.DeleteAllForSubject(ctx, "u1"))

	for _, id := range []string{a.ID, b.ID} {
		ok, err := r.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.False(t, mr.Exists(subjectKey("u1")))

	ok, err := r.Exists(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, ok, "other members keep their sessions")

	// nothing left to revoke
	require.NoError(t, r.DeleteAllForSubject(ctx, "u1"))
}

func TestRedisStore_ErrorsWhenServerGone(t *testing.T) {
	ctx := context.Background()
	mr, r := newTestRedis(t)
	mr.Close()

	_, err := r.Create(ctx, "u1", "member", time.Hour)
	assert.Error(t, err)
	_, err = r.Exists(ctx, "abc")
	assert.Error(t, err)
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}
