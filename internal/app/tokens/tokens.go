/*
Package tokens stores short-lived, single-use values such as password reset tokens
and popup sign-in state.

Redis backs the store in deployed environments. Memory is the stand-in used in
development when no Redis address is configured, and in tests.
*/
package tokens

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Take for missing, expired or already consumed keys.
var ErrNotFound = errors.New("token not found or expired")

// Store is a TTL-bound key/value store whose reads consume the value.
type Store interface {
	// Put stores value under key for ttl, replacing any previous value.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Take returns the value under key and deletes it atomically.
	Take(ctx context.Context, key string) ([]byte, error)
}

// RedisStore implements Store on Redis. Take uses GETDEL, so Redis 6.2 or later is required.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to Redis and verifies the connection with PING.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, errors.New("empty redis addr")
	}

	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// NewRedisStore namespaces every key under prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, value, ttl).Err()
}

func (s *RedisStore) Take(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.GetDel(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Store. Expired entries are dropped lazily on access and by Sweep.
type Memory struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = memoryItem{
		value:     append([]byte(nil), value...),
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

func (m *Memory) Take(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.items, key)

	if !m.now().Before(item.expiresAt) {
		return nil, ErrNotFound
	}
	return item.value, nil
}

// Sweep deletes expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for k, item := range m.items {
		if !now.Before(item.expiresAt) {
			delete(m.items, k)
			removed++
		}
	}
	return removed
}
