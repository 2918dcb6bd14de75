package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/decision-board/backend/internal/cache"
	"github.com/emilythestrangee/decision-board/backend/internal/logging"
)

// CodeRateLimited marks 429 responses.
const CodeRateLimited = "rate_limited"

// Limiter decides whether one more request under key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimitConfig defines a fixed request budget per window.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type entry struct {
	count     int
	windowEnd time.Time
}

// RateLimiter is an in-memory fixed-window limiter for single-instance
// deployments.
type RateLimiter struct {
	mu        sync.Mutex
	entries   map[string]*entry
	config    RateLimitConfig
	nextSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*entry),
		config:  cfg,
		now:     time.Now,
	}
}

func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	e, ok := rl.entries[key]
	if !ok || now.After(e.windowEnd) {
		rl.entries[key] = &entry{count: 1, windowEnd: now.Add(rl.config.Window)}
		return rl.config.Max > 0, nil
	}
	e.count++
	return e.count <= rl.config.Max, nil
}

// sweep drops expired windows at most once per window length.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Before(rl.nextSweep) {
		return
	}
	for key, e := range rl.entries {
		if now.After(e.windowEnd) {
			delete(rl.entries, key)
		}
	}
	rl.nextSweep = now.Add(rl.config.Window)
}

// RedisLimiter shares a sliding-window budget across API instances.
type RedisLimiter struct {
	cache  *cache.Cache
	config RateLimitConfig
}

func NewRedisLimiter(c *cache.Cache, cfg RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{cache: c, config: cfg}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return rl.cache.CheckRateLimit(ctx, key, rl.config.Max, rl.config.Window)
}

// NewLimiter picks the Redis limiter when the cache is connected.
func NewLimiter(c *cache.Cache, cfg RateLimitConfig) Limiter {
	if c.Enabled() {
		return NewRedisLimiter(c, cfg)
	}
	return NewRateLimiter(cfg)
}

// KeyByUser keys on the authenticated user and falls back to the client IP.
func KeyByUser(c *gin.Context) string {
	if id, ok := UserID(c); ok {
		return "user:" + strconv.Itoa(id)
	}
	return "ip:" + c.ClientIP()
}

// RateLimit enforces l per key. A limiter failure lets the request through.
func RateLimit(l Limiter, cfg RateLimitConfig, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c) + ":" + c.FullPath()
		allowed, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			logging.Logger.Warn().Err(err).Str("key", key).Msg("rate limit check failed")
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("Too many requests. Limit: %d per %v", cfg.Max, cfg.Window),
				"code":  CodeRateLimited,
			})
			return
		}
		c.Next()
	}
}
