package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/emilythestrangee/decision-board/backend/internal/logging"
	"github.com/emilythestrangee/decision-board/backend/internal/models"
)

const BreakdownTTL = 5 * time.Minute

// versionTTL outlives any breakdown stored under the version it guards.
const versionTTL = 24 * time.Hour

// Cache is a Redis cache-aside layer for viewer-independent decision
// aggregates. A Cache with no client is a no-op.
type Cache struct {
	rdb *redis.Client
}

// New connects to redisURL. An empty or unreachable URL yields a disabled
// cache rather than an error.
func New(redisURL string) *Cache {
	if redisURL == "" {
		logging.Logger.Info().Msg("redis: no URL configured, caching disabled")
		return &Cache{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logging.Logger.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &Cache{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logging.Logger.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		rdb.Close()
		return &Cache{}
	}

	logging.Logger.Info().Msg("redis: connected, caching enabled")
	return &Cache{rdb: rdb}
}

// NewWithClient wraps an existing client.
func NewWithClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

// Breakdown returns a cached breakdown together with the decision's current
// cache version, which must be handed back to SetBreakdown. ok is false on a
// miss.
func (c *Cache) Breakdown(ctx context.Context, id uuid.UUID) (b models.GenderBreakdown, ver int64, ok bool, err error) {
	if !c.Enabled() {
		return b, 0, false, nil
	}
	ver, err = c.rdb.Get(ctx, versionKey(id)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return b, 0, false, err
	}
	data, err := c.rdb.Get(ctx, breakdownKey(id, ver)).Bytes()
	if errors.Is(err, redis.Nil) {
		return b, ver, false, nil
	}
	if err != nil {
		return b, ver, false, err
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return b, ver, false, err
	}
	return b, ver, true, nil
}

// SetBreakdown stores b under version ver. A value computed before a later
// Invalidate lands under a superseded key and is never read.
func (c *Cache) SetBreakdown(ctx context.Context, id uuid.UUID, ver int64, b models.GenderBreakdown) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, breakdownKey(id, ver), data, BreakdownTTL).Err()
}

// Invalidate moves a decision to a new cache version. Called after votes and
// deletes.
func (c *Cache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if !c.Enabled() {
		return nil
	}
	pipe := c.rdb.TxPipeline()
	pipe.Incr(ctx, versionKey(id))
	pipe.Expire(ctx, versionKey(id), versionTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// CheckRateLimit records a hit on key and reports whether at most limit hits
// fall inside the trailing window. A disabled cache allows everything.
func (c *Cache) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !c.Enabled() {
		return true, nil
	}
	now := time.Now()
	key = "rate_limit:" + key

	pipe := c.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
	card := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return card.Val() < int64(limit), nil
}

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

func breakdownKey(id uuid.UUID, ver int64) string {
	return fmt.Sprintf("decision:%s:breakdown:v%d", id, ver)
}

func versionKey(id uuid.UUID) string {
	return fmt.Sprintf("decision:%s:breakdown:ver", id)
}
