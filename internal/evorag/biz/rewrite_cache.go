package biz

import (
	"context"
	"errors"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"
)

// RewriteCache memoizes query rewrites.
type RewriteCache interface {
	Get(ctx context.Context, query string) (string, bool)
	Set(ctx context.Context, query, rewritten string)
}

var _ RewriteCache = (*RedisRewriteCache)(nil)

// RedisRewriteCache stores rewrites under prefix + sha256(query).
// Redis failures degrade to cache misses.
type RedisRewriteCache struct {
	client goredis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisRewriteCache 创建基于 Redis 的查询重写缓存。
func NewRedisRewriteCache(client goredis.Cmdable, prefix string, ttl time.Duration) *RedisRewriteCache {
	if prefix == "" {
		prefix = "evorag:rewrite:"
	}
	return &RedisRewriteCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisRewriteCache) key(query string) string {
	return c.prefix + ContentHash(query)
}

// Get returns the cached rewrite of query.
func (c *RedisRewriteCache) Get(ctx context.Context, query string) (string, bool) {
	v, err := c.client.Get(ctx, c.key(query)).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			logger.Warnw("rewrite cache read failed", "error", err.Error())
		}
		return "", false
	}
	return v, true
}

// Set stores rewritten for query.
func (c *RedisRewriteCache) Set(ctx context.Context, query, rewritten string) {
	if err := c.client.Set(ctx, c.key(query), rewritten, c.ttl).Err(); err != nil {
		logger.Warnw("rewrite cache write failed", "error", err.Error())
	}
}
