package roles

import (
	"context"
	"errors"
	"time"

	"github.com/blues/raise/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

const cachePrefix = "role:"

// Cached 带 redis 读穿缓存的角色注册表
type Cached struct {
	Predicates
	inner Checker
	rdb   *redis.Client
	ttl   time.Duration
}

// NewCached 包装底层注册表
func NewCached(inner Checker, rdb *redis.Client, ttl time.Duration) *Cached {
	c := &Cached{inner: inner, rdb: rdb, ttl: ttl}
	c.Predicates = Predicates{Checker: c}
	return c
}

func (c *Cached) Has(ctx context.Context, role Role, account common.Address) (bool, error) {
	key := cacheKey(role, account)
	v, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return v == "1", nil
	case !errors.Is(err, redis.Nil):
		logger.Warn("Role cache read failed for %s: %v", key, err)
	}

	ok, err := c.inner.Has(ctx, role, account)
	if err != nil {
		return false, err
	}
	val := "0"
	if ok {
		val = "1"
	}
	if err := c.rdb.Set(ctx, key, val, c.ttl).Err(); err != nil {
		logger.Warn("Role cache write failed for %s: %v", key, err)
	}
	return ok, nil
}

// Invalidate 删除缓存项，授权变更后调用
func (c *Cached) Invalidate(ctx context.Context, role Role, account common.Address) error {
	return c.rdb.Del(ctx, cacheKey(role, account)).Err()
}

func cacheKey(role Role, account common.Address) string {
	return cachePrefix + string(role) + ":" + accountKey(account)
}
