package account

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwc684/ptmaster-sub001/pkg/utils"
)

// Limiter counts login attempts per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// RedisLimiter is a fixed-window limiter shared by every API instance.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return utils.AllowFixedWindow(ctx, l.rdb, "ptmaster:login:"+key, l.limit, l.window)
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return utils.ResetWindow(ctx, l.rdb, "ptmaster:login:"+key)
}
