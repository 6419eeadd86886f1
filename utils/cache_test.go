package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cppla/cookbook/config"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewCacheWithClient(rc, ttl, zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	c.SetBytes(ctx, "k", []byte("v"))
	_, ok := c.GetBytes(ctx, "k")
	assert.False(t, ok)
	_, ok = c.Generation(ctx, "gen")
	assert.False(t, ok)
	c.Bump(ctx, "gen")
	assert.NoError(t, c.Close())
}

func TestNewCacheDisabledWithoutHost(t *testing.T) {
	assert.Nil(t, NewCache(config.AppConfig{}, zap.NewNop()))
}

func TestCacheSetGet(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok := c.GetBytes(ctx, "cache:recipes:list:0")
	assert.False(t, ok)

	c.SetBytes(ctx, "cache:recipes:list:0", []byte(`[]`))
	b, ok := c.GetBytes(ctx, "cache:recipes:list:0")
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(b))
	assert.Equal(t, time.Minute, mr.TTL("cache:recipes:list:0"))
}

func TestCacheGeneration(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	gen, ok := c.Generation(ctx, "gen")
	assert.True(t, ok)
	assert.Zero(t, gen)

	c.Bump(ctx, "gen")
	c.Bump(ctx, "gen")
	gen, ok = c.Generation(ctx, "gen")
	assert.True(t, ok)
	assert.EqualValues(t, 2, gen)
	// the counter itself never expires
	assert.Zero(t, mr.TTL("gen"))

	require.NoError(t, mr.Set("gen", "not-a-number"))
	_, ok = c.Generation(ctx, "gen")
	assert.False(t, ok)
}

func TestCacheExpires(t *testing.T) {
	c, mr := newTestCache(t, 0)
	ctx := context.Background()

	c.SetBytes(ctx, "k", []byte("v"))
	assert.Equal(t, defaultCacheTTL, mr.TTL("k"))

	mr.FastForward(defaultCacheTTL + time.Second)
	_, ok := c.GetBytes(ctx, "k")
	assert.False(t, ok)
}

func TestCacheSurvivesRedisOutage(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	mr.Close()

	c.SetBytes(ctx, "k", []byte("v"))
	_, ok := c.GetBytes(ctx, "k")
	assert.False(t, ok)
	_, ok = c.Generation(ctx, "gen")
	assert.False(t, ok)
	c.Bump(ctx, "gen")
}
