package utils

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cppla/cookbook/config"
)

const defaultCacheTTL = 30 * time.Second

// Cache is a best-effort Redis cache. A nil *Cache is valid and caches nothing,
// and Redis failures are logged, never returned.
type Cache struct {
	rc     *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache returns nil when no Redis host is configured.
func NewCache(cfg config.AppConfig, logger *zap.Logger) *Cache {
	if cfg.RedisHost == "" {
		return nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, list cache will miss", zap.Error(err))
	}
	return NewCacheWithClient(rc, time.Duration(cfg.CacheTTLSeconds)*time.Second, logger)
}

// NewCacheWithClient wraps an existing client.
func NewCacheWithClient(rc *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{rc: rc, ttl: ttl, logger: logger}
}

// GetBytes returns the cached value for key.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return b, true
}

// SetBytes stores b under key with the configured TTL.
func (c *Cache) SetBytes(ctx context.Context, key string, b []byte) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Generation returns the counter stored at key, 0 when it was never bumped.
// ok is false when the counter cannot be read; callers must then bypass the cache.
func (c *Cache) Generation(ctx context.Context, key string) (gen int64, ok bool) {
	if c == nil {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	gen, err := c.rc.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.logger.Warn("cache generation read failed", zap.String("key", key), zap.Error(err))
		return 0, false
	}
	return gen, true
}

// Bump advances the counter at key. Entries stored under an older generation
// are never looked up again and age out with their TTL.
func (c *Cache) Bump(ctx context.Context, key string) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := c.rc.Incr(ctx, key).Err(); err != nil {
		c.logger.Warn("cache generation bump failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the Redis connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rc.Close()
}
