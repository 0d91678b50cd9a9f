package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key layout:
//
//	session:<id>            JSON Session, expires with the session
//	session:subject:<sub>   set of session ids, so a password change can revoke them all
const (
	keySession        = "session:"
	keySubjectSession = "session:subject:"
)

// RedisStore shares sessions between server instances and survives restarts.
// Expiry is left to Redis TTLs, so there is nothing to purge.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects using a redis:// or rediss:// URL and pings the server.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session: parsing redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session: pinging redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (r *RedisStore) Create(ctx context.Context, subject, role string, ttl time.Duration) (*Session, error) {
	s := newSession(subject, role, ttl, time.Now().UTC())
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("session: encoding session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(s.ID), payload, ttl)
	pipe.SAdd(ctx, subjectKey(subject), s.ID)
	// Refreshing the TTL keeps the index alive as long as the newest session.
	pipe.Expire(ctx, subjectKey(subject), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("session: storing session: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("session: checking session: %w", err)
	}
	return n == 1, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("session: deleting session: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteAllForSubject(ctx context.Context, subject string) error {
	ids, err := r.client.SMembers(ctx, subjectKey(subject)).Result()
	if err != nil {
		return fmt.Errorf("session: listing sessions of %s: %w", subject, err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, subjectKey(subject))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session: revoking sessions of %s: %w", subject, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func sessionKey(id string) string      { return keySession + id }
func subjectKey(subject string) string { return keySubjectSession + subject }
