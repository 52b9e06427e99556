package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tasjeel/pkg/platform/sentinel"
)

const defaultLockTTL = 10 * time.Second

// releaseScript deletes the key only if this holder still owns it, so an
// expired-and-reacquired lock is never released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements the identity advisory lock across instances with
// SET NX plus a fencing token. The TTL bounds how long a crashed holder can
// block an identity; the guarded section is a local check-and-write, so the
// default is generous.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisLockerOption configures a RedisLocker.
type RedisLockerOption func(*RedisLocker)

// WithLockTTL overrides the lock expiry.
func WithLockTTL(ttl time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func NewRedisLocker(client *redis.Client, opts ...RedisLockerOption) *RedisLocker {
	l := &RedisLocker{client: client, ttl: defaultLockTTL}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire identity lock: %w: %w", sentinel.ErrUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("identity lock %s: %w", key, sentinel.ErrLockUnavailable)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// Release must run even when the request context is cancelled.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
		})
	}
	return release, nil
}
