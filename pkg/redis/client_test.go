package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesale-backend/pkg/config"
)

// memory is an in-process stand-in for the handful of commands the client sends.
type memory struct {
	values  map[string]string
	sets    map[string]map[string]bool
	ttls    map[string]time.Duration
	incrErr error
}

func newMemory() *memory {
	return &memory{values: map[string]string{}, sets: map[string]map[string]bool{}, ttls: map[string]time.Duration{}}
}

func (m *memory) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memory) SAdd(_ context.Context, key string, members ...any) *redis.IntCmd {
	if m.sets[key] == nil {
		m.sets[key] = map[string]bool{}
	}
	for _, member := range members {
		m.sets[key][fmt.Sprint(member)] = true
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (m *memory) SMembers(_ context.Context, key string) *redis.StringSliceCmd {
	var out []string
	for member := range m.sets[key] {
		out = append(out, member)
	}
	return redis.NewStringSliceResult(out, nil)
}

func (m *memory) SRem(_ context.Context, key string, members ...any) *redis.IntCmd {
	for _, member := range members {
		delete(m.sets[key], fmt.Sprint(member))
	}
	return redis.NewIntResult(int64(len(members)), nil)
}

func (m *memory) Ping(context.Context) *redis.StatusCmd { return redis.NewStatusResult("PONG", nil) }

func (m *memory) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memory) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.values[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memory) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.Set(ctx, key, value, ttl)
	return redis.NewBoolResult(true, nil)
}

func (m *memory) Incr(_ context.Context, key string) *redis.IntCmd {
	if m.incrErr != nil {
		return redis.NewIntResult(0, m.incrErr)
	}
	var n int64
	fmt.Sscan(m.values[key], &n)
	n++
	m.values[key] = fmt.Sprint(n)
	return redis.NewIntResult(n, nil)
}

func (m *memory) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	if m.ttls[key] > 0 {
		return redis.NewBoolResult(false, nil)
	}
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memory) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (m *memory) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(m.values, k)
		delete(m.ttls, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestFixedWindowAllowCountsWithinWindow(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	client := &Client{cmd: mem}

	for want := int64(1); want <= 2; want++ {
		allowed, count, err := client.FixedWindowAllow(ctx, "login:10.0.0.1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, want, count)
	}
	assert.Equal(t, time.Minute, mem.ttls["ws:rate_limit:login:10.0.0.1"])

	allowed, count, err := client.FixedWindowAllow(ctx, "login:10.0.0.1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(3), count)
}

func TestIncrWithTTLKeepsExistingExpiry(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	client := &Client{cmd: mem}

	_, err := client.IncrWithTTL(ctx, "k", time.Minute)
	require.NoError(t, err)
	_, err = client.IncrWithTTL(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mem.ttls["k"])
}

func TestIncrWithTTLWrapsFailures(t *testing.T) {
	mem := newMemory()
	mem.incrErr = errors.New("connection reset")
	client := &Client{cmd: mem}

	allowed, _, err := client.FixedWindowAllow(context.Background(), "login", 1, time.Minute)
	require.ErrorContains(t, err, "connection reset")
	assert.False(t, allowed)
}

func TestSessionKeyLifecycle(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newMemory()}
	key := client.AdminSessionKey("jti-1")

	require.NoError(t, client.Set(ctx, key, "admin", time.Hour))
	ok, err := client.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "admin", v)

	set, err := client.SetNX(ctx, key, "other", time.Hour)
	require.NoError(t, err)
	assert.False(t, set)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.True(t, IsNil(err))
	require.NoError(t, client.Del(ctx))
}

func TestZeroClientRefusesCommands(t *testing.T) {
	var client *Client
	assert.ErrorIs(t, client.Ping(context.Background()), errNotInitialized)
	assert.NoError(t, client.Close())

	_, err := (&Client{}).Exists(context.Background(), "k")
	assert.ErrorIs(t, err, errNotInitialized)
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", DB: 5, PoolSize: 10, DialTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 2, opts.DB, "url database wins")
	assert.Equal(t, 10, opts.PoolSize)
	assert.Equal(t, time.Second, opts.DialTimeout)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", Password: "pw", DB: 3})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}

func TestKeys(t *testing.T) {
	client := &Client{}
	assert.Equal(t, "ws:cart:abc", client.CartKey("abc"))
	assert.Equal(t, "ws:session:admin:jti", client.AdminSessionKey("jti"))
	assert.Equal(t, "ws:rate_limit:login", client.RateLimitKey("login"))
	assert.Equal(t, "ws:lock:outbox-retention", client.LockKey("outbox-retention"))
	assert.Equal(t, "ws:cart", client.CartKey(" "))
	assert.Equal(t, "ws:session:admin_user:admin", client.AdminSessionsKey("admin"))
}

func TestSetHelpers(t *testing.T) {
	ctx := context.Background()
	mem := newMemory()
	client := &Client{cmd: mem}

	require.NoError(t, client.SAdd(ctx, "idx", time.Hour, "a", "b"))
	assert.Equal(t, time.Hour, mem.ttls["idx"])
	require.NoError(t, client.SAdd(ctx, "idx", 0))

	members, err := client.SMembers(ctx, "idx")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, members)

	require.NoError(t, client.SRem(ctx, "idx", "a"))
	members, err = client.SMembers(ctx, "idx")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, members)
}
