package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys
const DefaultRedisPrefix = "equitylab:session:"

// RedisStore keeps sessions in Redis with a TTL matching their expiry
type RedisStore struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

type redisRecord struct {
	Values    map[string]string `json:"values"`
	ExpiresAt int64             `json:"expires_at"`
}

// NewRedisStore creates a store using client
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Get loads a session
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}

	sess := &Session{ID: id, Values: rec.Values, ExpiresAt: time.Unix(rec.ExpiresAt, 0)}
	if sess.Values == nil {
		sess.Values = make(map[string]string)
	}
	if sess.Expired(r.now()) {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Save writes a session with a TTL until its expiry. Already expired sessions are deleted.
func (r *RedisStore) Save(ctx context.Context, sess *Session) error {
	ttl := sess.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return r.Delete(ctx, sess.ID)
	}

	data, err := json.Marshal(redisRecord{Values: sess.Values, ExpiresAt: sess.ExpiresAt.Unix()})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := r.client.Set(ctx, r.key(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
