package middleware

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"elearning/backend/utils"
)

// RateLimiter allows Limit requests per Window for each client IP and route.
// Counters live in Redis when a client is configured so every replica shares them;
// otherwise, or while Redis is unreachable, a per-process token bucket is used.
type RateLimiter struct {
	Redis  *redis.Client
	Prefix string
	Limit  int
	Window time.Duration
	log    *zap.SugaredLogger

	now       func() time.Time
	local     sync.Map // key -> *localBucket
	lastSweep atomic.Int64
}

type localBucket struct {
	limiter *rate.Limiter
	seen    atomic.Int64
}

func NewRateLimiter(r *redis.Client, limit int, window time.Duration, logger *zap.SugaredLogger) *RateLimiter {
	return &RateLimiter{Redis: r, Prefix: "ratelimit", Limit: limit, Window: window, log: logger, now: time.Now}
}

func (l *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l.Limit <= 0 {
			return c.Next()
		}
		key := fmt.Sprintf("%s:%s:%s", l.Prefix, c.Path(), c.IP())

		var allowed bool
		var err error
		if l.Redis != nil {
			allowed, err = l.allowRedis(c, key)
			if err != nil {
				l.log.Warnw("rate limiter redis error, using local limiter", "error", err)
			}
		}
		if l.Redis == nil || err != nil {
			allowed = l.allowLocal(key)
		}
		if !allowed {
			return utils.Message(c, fiber.StatusTooManyRequests, "Too many requests, please try again later")
		}
		return c.Next()
	}
}

// allowRedis counts the request in a fixed window. The counter and its expiry are
// written in one transaction so no key outlives its window.
func (l *RateLimiter) allowRedis(c *fiber.Ctx, key string) (bool, error) {
	ctx := c.UserContext()
	var count *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, l.Window)
		count = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return false, err
	}
	// a counter left without expiry by an older writer
	if ttl.Val() < 0 {
		if err := l.Redis.PExpire(ctx, key, l.Window).Err(); err != nil {
			return false, err
		}
	}
	return count.Val() <= int64(l.Limit), nil
}

func (l *RateLimiter) allowLocal(key string) bool {
	now := l.now()
	l.sweep(now)

	v, ok := l.local.Load(key)
	if !ok {
		every := rate.Every(l.Window / time.Duration(l.Limit))
		v, _ = l.local.LoadOrStore(key, &localBucket{limiter: rate.NewLimiter(every, l.Limit)})
	}
	b := v.(*localBucket)
	b.seen.Store(now.UnixNano())
	return b.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for a whole window, at most once per window. A bucket
// idle that long has refilled, so dropping it changes no decision.
func (l *RateLimiter) sweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(l.Window) || !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-l.Window).UnixNano()
	l.local.Range(func(k, v interface{}) bool {
		if v.(*localBucket).seen.Load() < cutoff {
			l.local.Delete(k)
		}
		return true
	})
}
