package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Registry remembers which session ids are currently active so a logout
// takes effect before the token itself expires.
type Registry interface {
	Register(ctx context.Context, sessionID string, ttl time.Duration) error
	IsActive(ctx context.Context, sessionID string) (bool, error)
	Revoke(ctx context.Context, sessionID string) error
}

const redisKeyPrefix = "session:"

type RedisRegistry struct {
	client *redis.Client
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

func (r *RedisRegistry) Register(ctx context.Context, sessionID string, ttl time.Duration) error {
	return r.client.Set(ctx, redisKey(sessionID), "1", ttl).Err()
}

func (r *RedisRegistry) IsActive(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisRegistry) Revoke(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, redisKey(sessionID)).Err()
}

// MemoryRegistry is process-local; sessions do not survive a restart and are
// not shared between replicas.
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return newMemoryRegistry(time.Now)
}

func newMemoryRegistry(now func() time.Time) *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]time.Time), now: now}
}

func (m *MemoryRegistry) Register(_ context.Context, sessionID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweep()
	m.sessions[sessionID] = m.now().Add(ttl)
	return nil
}

func (m *MemoryRegistry) IsActive(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt, ok := m.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if !m.now().Before(expiresAt) {
		delete(m.sessions, sessionID)
		return false, nil
	}
	return true, nil
}

func (m *MemoryRegistry) Revoke(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

// sweep drops expired entries; callers hold mu.
func (m *MemoryRegistry) sweep() {
	now := m.now()
	for id, expiresAt := range m.sessions {
		if !now.Before(expiresAt) {
			delete(m.sessions, id)
		}
	}
}
