package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return f.err
}

func (f *fakeKV) CartKey(sessionID string) string { return "ws:cart:" + sessionID }

func TestRedisStoreRoundTrip(t *testing.T) {
	kv := newFakeKV()
	store := &RedisStore{client: kv, ttl: time.Hour}
	ctx := context.Background()

	empty, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	c := New()
	c.AddLine(7, "Watch", decimal.NewFromInt(2500), 3, "")
	require.NoError(t, store.Save(ctx, "s1", c))
	assert.Equal(t, time.Hour, kv.ttls["ws:cart:s1"])

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, loaded.Total().Equal(decimal.NewFromInt(7500)))

	loaded.Clear()
	require.NoError(t, store.Save(ctx, "s1", loaded))
	_, exists := kv.values["ws:cart:s1"]
	assert.False(t, exists)
}

func TestRedisStoreErrors(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("connection refused")
	store := &RedisStore{client: kv}

	_, err := store.Load(context.Background(), "s1")
	assert.ErrorContains(t, err, "connection refused")

	_, err = store.Load(context.Background(), " ")
	assert.Error(t, err)
}

func TestMemoryStoreIsolatesSessions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	c := New()
	c.AddLine(1, "A", decimal.NewFromInt(3), 1, "")
	require.NoError(t, store.Save(ctx, "a", c))

	other, err := store.Load(ctx, "b")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())

	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	loaded.AddLine(2, "B", decimal.NewFromInt(4), 1, "")

	again, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, again.Lines(), 1)

	require.NoError(t, store.Delete(ctx, "a"))
	gone, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.True(t, gone.IsEmpty())
}
