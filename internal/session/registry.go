package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Registry tracks live sessions so a signed-out token stops validating
// before it expires.
type Registry interface {
	Add(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Remove(ctx context.Context, sessionID string) error
}

const registryKeyPrefix = "storefront:session:"

// RedisRegistry stores sessions as keys expiring with their token.
type RedisRegistry struct {
	client *redis.Client
}

var _ Registry = (*RedisRegistry)(nil)

// NewRedisRegistry creates a Redis-backed registry.
func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

// Add implements Registry.
func (r *RedisRegistry) Add(ctx context.Context, sessionID, userID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, registryKeyPrefix+sessionID, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Exists implements Registry.
func (r *RedisRegistry) Exists(ctx context.Context, sessionID string) (bool, error) {
	err := r.client.Get(ctx, registryKeyPrefix+sessionID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get session: %w", err)
	}
	return true, nil
}

// Remove implements Registry.
func (r *RedisRegistry) Remove(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, registryKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

// MemoryRegistry keeps sessions in process memory. Sessions are lost on
// restart.
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	now      func() time.Time
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{sessions: make(map[string]time.Time), now: time.Now}
}

// Add implements Registry.
func (r *MemoryRegistry) Add(_ context.Context, sessionID, _ string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = r.now().Add(ttl)
	return nil
}

// Exists implements Registry. Expired sessions are purged on lookup.
func (r *MemoryRegistry) Exists(_ context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if !r.now().Before(exp) {
		delete(r.sessions, sessionID)
		return false, nil
	}
	return true, nil
}

// Remove implements Registry.
func (r *MemoryRegistry) Remove(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}
