package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// deleteIfUnchanged removes the key only when it still holds the value that was
// found to be expired, so a fresh login written in between is never dropped.
var deleteIfUnchanged = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRepo stores sessions in Redis so that several gateway instances share them.
// Each key carries a PEXPIREAT at the session expiry, which makes Redis do the cleanup.
type RedisRepo struct {
	client  redis.UniversalClient
	prefix  string
	nowFunc func() time.Time
}

var _ Repo = (*RedisRepo)(nil)

type RedisOption func(*RedisRepo)

// WithRedisNowFunc sets the clock used to double-check expiry on read
func WithRedisNowFunc(now func() time.Time) RedisOption {
	return func(r *RedisRepo) {
		r.nowFunc = now
	}
}

// NewRedisRepo creates a Redis-backed session repository. Keys are prefix+subject.
func NewRedisRepo(client redis.UniversalClient, prefix string, options ...RedisOption) *RedisRepo {
	r := &RedisRepo{
		client:  client,
		prefix:  prefix,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *RedisRepo) key(subject string) string {
	return r.prefix + subject
}

// Upsert writes the session and its expiry in one transaction
func (r *RedisRepo) Upsert(ctx context.Context, session Session) error {
	if session.Subject == "" {
		return fmt.Errorf("subject is required")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("[RedisRepo Upsert] marshal: %w", err)
	}

	key := r.key(session.Subject)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		pipe.PExpireAt(ctx, key, session.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("[RedisRepo Upsert] %w", err)
	}
	return nil
}

// Get retrieves the live session for subject
func (r *RedisRepo) Get(ctx context.Context, subject string) (*Session, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject is required")
	}

	key := r.key(subject)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[RedisRepo Get] %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("[RedisRepo Get] unmarshal: %w", err)
	}

	if session.Expired(r.nowFunc()) {
		if err := deleteIfUnchanged.Run(ctx, r.client, []string{key}, data).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("[RedisRepo Get] delete expired: %w", err)
		}
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes the session for subject
func (r *RedisRepo) Delete(ctx context.Context, subject string) error {
	if err := r.client.Del(ctx, r.key(subject)).Err(); err != nil {
		return fmt.Errorf("[RedisRepo Delete] %w", err)
	}
	return nil
}
