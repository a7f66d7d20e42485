package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	redisclient "github.com/angelmondragon/wholesale-backend/pkg/redis"
)

// Registry tracks which admin token ids are still live. A token that parses
// but is absent from the registry has been revoked.
type Registry interface {
	Register(ctx context.Context, tokenID, username string, ttl time.Duration) error
	Active(ctx context.Context, tokenID string) (bool, error)
	Revoke(ctx context.Context, tokenID string) error
	// RevokeOthers ends every session of username except keepTokenID and
	// reports how many were ended.
	RevokeOthers(ctx context.Context, username, keepTokenID string) (int, error)
}

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SRem(ctx context.Context, key string, members ...string) error
	AdminSessionKey(tokenID string) string
	AdminSessionsKey(username string) string
}

// RedisRegistry keeps token ids in Redis with the token's own TTL.
type RedisRegistry struct {
	store store
}

// NewRedisRegistry constructs a registry backed by Redis.
func NewRedisRegistry(client *redisclient.Client) (*RedisRegistry, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &RedisRegistry{store: client}, nil
}

func (r *RedisRegistry) Register(ctx context.Context, tokenID, username string, ttl time.Duration) error {
	if err := requireID(tokenID); err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if err := r.store.Set(ctx, r.store.AdminSessionKey(tokenID), username, ttl); err != nil {
		return err
	}
	return r.store.SAdd(ctx, r.store.AdminSessionsKey(username), ttl, tokenID)
}

func (r *RedisRegistry) Active(ctx context.Context, tokenID string) (bool, error) {
	if err := requireID(tokenID); err != nil {
		return false, err
	}
	return r.store.Exists(ctx, r.store.AdminSessionKey(tokenID))
}

func (r *RedisRegistry) Revoke(ctx context.Context, tokenID string) error {
	if err := requireID(tokenID); err != nil {
		return err
	}
	return r.store.Del(ctx, r.store.AdminSessionKey(tokenID))
}

// RevokeOthers walks the per-user index. Ids whose session already expired
// are dropped from the index without being counted.
func (r *RedisRegistry) RevokeOthers(ctx context.Context, username, keepTokenID string) (int, error) {
	index := r.store.AdminSessionsKey(username)
	ids, err := r.store.SMembers(ctx, index)
	if err != nil {
		return 0, err
	}
	var stale []string
	revoked := 0
	for _, id := range ids {
		if id == keepTokenID {
			continue
		}
		key := r.store.AdminSessionKey(id)
		live, err := r.store.Exists(ctx, key)
		if err != nil {
			return revoked, err
		}
		if live {
			if err := r.store.Del(ctx, key); err != nil {
				return revoked, err
			}
			revoked++
		}
		stale = append(stale, id)
	}
	return revoked, r.store.SRem(ctx, index, stale...)
}

// MemoryRegistry is the single-process registry used when Redis is not
// configured. Sessions do not survive a restart.
type MemoryRegistry struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	username string
	expiry   time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryRegistry) Register(_ context.Context, tokenID, username string, ttl time.Duration) error {
	if err := requireID(tokenID); err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	m.entries[tokenID] = memoryEntry{username: username, expiry: m.now().Add(ttl)}
	return nil
}

func (m *MemoryRegistry) Active(_ context.Context, tokenID string) (bool, error) {
	if err := requireID(tokenID); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !m.now().Before(entry.expiry) {
		delete(m.entries, tokenID)
		return false, nil
	}
	return true, nil
}

func (m *MemoryRegistry) Revoke(_ context.Context, tokenID string) error {
	if err := requireID(tokenID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, tokenID)
	return nil
}

func (m *MemoryRegistry) RevokeOthers(_ context.Context, username, keepTokenID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked()
	revoked := 0
	for id, entry := range m.entries {
		if id != keepTokenID && entry.username == username {
			delete(m.entries, id)
			revoked++
		}
	}
	return revoked, nil
}

func (m *MemoryRegistry) pruneLocked() {
	now := m.now()
	for id, entry := range m.entries {
		if !now.Before(entry.expiry) {
			delete(m.entries, id)
		}
	}
}

func requireID(tokenID string) error {
	if strings.TrimSpace(tokenID) == "" {
		return fmt.Errorf("token id is required")
	}
	return nil
}
