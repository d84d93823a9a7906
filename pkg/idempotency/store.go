package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Status describes a key after a Reserve call.
type Status int

const (
	// StatusAcquired means the caller now holds the key and must Complete or
	// Release it.
	StatusAcquired Status = iota
	// StatusInFlight means another caller holds the key and its outcome is
	// not known yet.
	StatusInFlight
	// StatusCompleted means the work guarded by the key already succeeded.
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusAcquired:
		return "acquired"
	case StatusInFlight:
		return "in_flight"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

const (
	valueInFlight  = "in_flight"
	valueCompleted = "completed"
)

// Store defines the strategy interface for idempotency key reservation.
type Store interface {
	// Reserve claims key for ttl. When the key is already held it reports
	// whether the holder finished or is still working.
	Reserve(ctx context.Context, key string, ttl time.Duration) (Status, error)
	// Complete marks a held key as succeeded and keeps it for ttl.
	Complete(ctx context.Context, key string, ttl time.Duration) error
	// Release frees a key so a later request may claim it again.
	Release(ctx context.Context, key string) error
	Close() error
}

type entry struct {
	expiresAt time.Time
	completed bool
}

// InMemoryStore keeps reservations in process memory. Suitable for a single
// instance; reservations are lost on restart.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ops     uint64
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *InMemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (Status, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		if e.completed {
			return StatusCompleted, nil
		}
		return StatusInFlight, nil
	}

	s.entries[key] = entry{expiresAt: now.Add(ttl)}

	// Opportunistic cleanup to avoid unbounded growth.
	s.ops++
	if s.ops%512 == 0 {
		for k, e := range s.entries {
			if !now.Before(e.expiresAt) {
				delete(s.entries, k)
			}
		}
	}

	return StatusAcquired, nil
}

func (s *InMemoryStore) Complete(_ context.Context, key string, ttl time.Duration) error {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{expiresAt: now.Add(ttl), completed: true}
	return nil
}

func (s *InMemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

// RedisStore shares reservations across instances with SET NX.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisStore(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) fullKey(key string) string {
	if s.keyPrefix != "" && !strings.HasPrefix(key, s.keyPrefix) {
		return s.keyPrefix + key
	}
	return key
}

func (s *RedisStore) Reserve(ctx context.Context, key string, ttl time.Duration) (Status, error) {
	fullKey := s.fullKey(key)

	ok, err := s.client.SetNX(ctx, fullKey, valueInFlight, ttl).Result()
	if err != nil {
		return StatusInFlight, fmt.Errorf("idempotency Redis error: %w", err)
	}
	if ok {
		return StatusAcquired, nil
	}

	value, err := s.client.Get(ctx, fullKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// Expired between SETNX and GET; the next attempt may claim it.
		return StatusInFlight, nil
	case err != nil:
		return StatusInFlight, fmt.Errorf("idempotency Redis error: %w", err)
	case value == valueCompleted:
		return StatusCompleted, nil
	default:
		return StatusInFlight, nil
	}
}

func (s *RedisStore) Complete(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.fullKey(key), valueCompleted, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency Redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("idempotency Redis error: %w", err)
	}
	return nil
}

// The Redis client is owned by the ApplicationConfig and closed there
func (s *RedisStore) Close() error {
	return nil
}

type Config struct {
	Redis     *redis.Client // Optional, if nil uses in-memory
	KeyPrefix string
}

// NewStore creates a store based on configuration
func NewStore(config *Config) Store {
	if config != nil && config.Redis != nil {
		prefix := config.KeyPrefix
		if prefix == "" {
			prefix = "dispatch:idempotency:"
		}
		return NewRedisStore(config.Redis, prefix)
	}
	return NewInMemoryStore()
}
