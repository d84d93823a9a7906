package config

import (
	"context"
	"errors"
	"strings"

	"github.com/akeren/digitalcraft-dispatch/internal/log"
	pkgredis "github.com/akeren/digitalcraft-dispatch/pkg/redis"
	"github.com/akeren/digitalcraft-dispatch/pkg/utils"
	"github.com/go-redis/redis/v8"
)

const DefaultCacheNamespace = "dispatch"

// Cache is the shared Redis connection. Dispatch never caches values
// directly; the connection backs the rate limiters, the idempotency store
// and the health check.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
}

// RedisClientProvider exposes the underlying client to the rate limiter
// (Lua scripts) and the idempotency store (SET NX).
type RedisClientProvider interface {
	GetClient() *redis.Client
}

var ErrCacheNotConfigured = errors.New("cache: REDIS_HOST is not configured")

type CacheConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	Namespace string
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		Host:      utils.GetEnvTrimmed("REDIS_HOST"),
		Port:      utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password:  sanitizeEnv(utils.GetEnvTrimmed("REDIS_PASSWORD")),
		DB:        utils.GetEnvPositiveInt("REDIS_DB", 0),
		Namespace: strings.Trim(utils.GetEnvTrimmedOrDefault("REDIS_NAMESPACE", DefaultCacheNamespace), ":"),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.Host != ""
}

// KeyPrefix namespaces one concern's keys, e.g. "dispatch:idempotency:".
func (cc *CacheConfig) KeyPrefix(concern string) string {
	namespace := cc.Namespace
	if namespace == "" {
		namespace = DefaultCacheNamespace
	}
	return namespace + ":" + concern + ":"
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	if !cc.IsConfigured() {
		return nil, ErrCacheNotConfigured
	}

	cache, err := pkgredis.NewRedisCache(&pkgredis.Config{
		Host:     cc.Host,
		Port:     cc.Port,
		Password: cc.Password,
		DB:       cc.DB,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Redis connected; rate limits and idempotency keys are shared across instances", "db", cc.DB, "namespace", cc.Namespace)
	return cache, nil
}

// NewCacheOrNil degrades to per-instance rate limits and idempotency keys
// when Redis is missing or unreachable.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Redis is not configured; rate limits and idempotency keys stay in memory")
		return nil
	}

	cache, err := cc.NewCache(logger)
	if err != nil {
		logger.Error("Redis unavailable; rate limits and idempotency keys stay in memory", "error", err)
		return nil
	}

	return cache
}

func GetRedisClient(cache Cache) *redis.Client {
	if provider, ok := cache.(RedisClientProvider); ok {
		return provider.GetClient()
	}
	return nil
}

func CloseCache(cache Cache, logger *log.Logger) error {
	if cache == nil {
		return nil
	}

	if err := cache.Close(); err != nil {
		logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	logger.Info("Redis connection closed")
	return nil
}
