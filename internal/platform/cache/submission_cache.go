package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"cf_finder/internal/domain/model"
	"cf_finder/internal/platform/telemetry"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cf_finder:submissions:"

// SubmissionCache keeps recently fetched submission histories in redis.
// Redis failures are logged and treated as misses.
type SubmissionCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

func NewSubmissionCache(rdb *redis.Client, ttl time.Duration, metrics *telemetry.Metrics, logger *slog.Logger) *SubmissionCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionCache{rdb: rdb, ttl: ttl, metrics: metrics, logger: logger}
}

func cacheKey(handle string) string {
	return keyPrefix + strings.ToLower(handle)
}

func (c *SubmissionCache) Get(ctx context.Context, handle string) ([]model.RawSubmission, bool) {
	data, err := c.rdb.Get(ctx, cacheKey(handle)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "submission cache read failed", "handle", handle, "error", err)
			c.metrics.ObserveCache("error")
			return nil, false
		}
		c.metrics.ObserveCache("miss")
		return nil, false
	}

	var subs []model.RawSubmission
	if err := json.Unmarshal(data, &subs); err != nil {
		c.logger.WarnContext(ctx, "submission cache entry corrupt", "handle", handle, "error", err)
		c.metrics.ObserveCache("error")
		return nil, false
	}
	c.metrics.ObserveCache("hit")
	return subs, true
}

func (c *SubmissionCache) Set(ctx context.Context, handle string, subs []model.RawSubmission) {
	if c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(subs)
	if err != nil {
		c.logger.WarnContext(ctx, "submission cache encode failed", "handle", handle, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(handle), data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "submission cache write failed", "handle", handle, "error", err)
	}
}
