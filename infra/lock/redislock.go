// Package lock serializes payment initiations for the same order across
// replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mstgnz/posgate/infra/config"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "posgate:order-lock:"

// Locker provides a Redis-backed distributed lock.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
}

// New connects to the Redis instance named by cfg. It returns nil, nil when
// no address is configured.
func New(ctx context.Context, cfg *config.AppConfig) (*Locker, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("lock: redis ping: %w", err)
	}
	return &Locker{R: client}, nil
}

// OrderKey is the lock key for one provider/order pair.
func OrderKey(providerID, orderID string) string {
	return keyPrefix + strings.ToLower(providerID) + ":" + orderID
}

// WithLock executes fn while holding a lock for key. The lock is released
// even if fn fails. When the lock cannot be acquired before ctx is done,
// ctx.Err() is returned.
func (l *Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l == nil || l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}

	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer l.release(context.Background(), key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Locker) release(ctx context.Context, key, token string) {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	if err := l.R.Eval(ctx, script, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.R.Del(ctx, key).Err()
		}
	}
}

// Close closes the Redis client
func (l *Locker) Close() error {
	if l == nil || l.R == nil {
		return nil
	}
	return l.R.Close()
}
