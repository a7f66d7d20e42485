package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wholesale-backend/pkg/redis"
)

const defaultLockTTL = 2 * time.Hour

// ReleaseFunc gives a held lock back. Calling it more than once is a no-op.
type ReleaseFunc func(context.Context) error

// Lock grants one cron worker at a time the right to run due jobs.
type Lock interface {
	// TryAcquire reports ok=false, without error, when someone else holds it.
	TryAcquire(ctx context.Context) (release ReleaseFunc, ok bool, err error)
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lease. The TTL bounds how long a crashed holder can
// block other workers.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("cron lock: redis client required")
	}
	if key == "" {
		return nil, errors.New("cron lock: key required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) TryAcquire(ctx context.Context) (ReleaseFunc, bool, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}
	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() { err = l.release(ctx, token) })
		return err
	}, true, nil
}

// release deletes the key only while it still carries our token; an expired
// lease may already belong to another worker.
func (l *RedisLock) release(ctx context.Context, token string) error {
	current, err := l.store.Get(ctx, l.key)
	if redis.IsNil(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", l.key, err)
	}
	if current != token {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

// LocalLock only excludes overlapping runs inside this process. It is used
// when Redis is not configured, which means a single cron worker.
type LocalLock struct {
	mu sync.Mutex
}

func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

func (l *LocalLock) TryAcquire(context.Context) (ReleaseFunc, bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(l.mu.Unlock)
		return nil
	}, true, nil
}
