package cron

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLockStore struct {
	values map[string]string
}

func newMemLockStore() *memLockStore {
	return &memLockStore{values: map[string]string{}}
}

func (m *memLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memLockStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memLockStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := newMemLockStore()
	ctx := context.Background()
	workerA, err := NewRedisLock(store, "ws:lock:cron-worker:dev", time.Minute)
	require.NoError(t, err)
	workerB, err := NewRedisLock(store, "ws:lock:cron-worker:dev", time.Minute)
	require.NoError(t, err)

	release, ok, err := workerA.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = workerB.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))
	assert.Empty(t, store.values)
	require.NoError(t, release(ctx), "second release is a no-op")

	_, ok, err = workerB.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockKeepsLeaseTakenOverAfterExpiry(t *testing.T) {
	store := newMemLockStore()
	ctx := context.Background()
	lock, err := NewRedisLock(store, "ws:lock:cron", time.Minute)
	require.NoError(t, err)

	release, ok, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// lease expired and another worker took it
	store.values["ws:lock:cron"] = "other-worker"
	require.NoError(t, release(ctx))
	assert.Equal(t, "other-worker", store.values["ws:lock:cron"])
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "key", 0)
	assert.Error(t, err)
	_, err = NewRedisLock(newMemLockStore(), "", 0)
	assert.Error(t, err)

	lock, err := NewRedisLock(newMemLockStore(), "key", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)
}

func TestLocalLock(t *testing.T) {
	lock := NewLocalLock()
	ctx := context.Background()

	release, ok, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = lock.TryAcquire(ctx)
	assert.False(t, ok)

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	release, ok, _ = lock.TryAcquire(ctx)
	assert.True(t, ok)
	require.NoError(t, release(ctx))
}
