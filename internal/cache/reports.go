// Package cache stores finished analysis results in Redis keyed by video
// hash, so re-submitting a video the pipeline has already seen returns
// the cached verdict instead of re-running the engine.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 7 * 24 * time.Hour

var ErrNotFound = errors.New("report not cached")

// ReportCache wraps a Redis client. A nil TTL duration falls back to
// DefaultTTL at construction.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ReportCache{client: client, ttl: ttl}
}

func reportKey(videoHash string) string {
	return fmt.Sprintf("result:%s", videoHash)
}

// Set stores the marshaled result under the video hash.
func (c *ReportCache) Set(ctx context.Context, videoHash string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal cached report: %w", err)
	}
	return c.client.Set(ctx, reportKey(videoHash), data, c.ttl).Err()
}

// Get unmarshals the cached result into dst. Returns ErrNotFound on a
// cache miss.
func (c *ReportCache) Get(ctx context.Context, videoHash string, dst any) error {
	data, err := c.client.Get(ctx, reportKey(videoHash)).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// Invalidate drops a cached result, e.g. after a config version bump
// makes old verdicts stale.
func (c *ReportCache) Invalidate(ctx context.Context, videoHash string) error {
	return c.client.Del(ctx, reportKey(videoHash)).Err()
}
