// Package cache stores computed statistics in Redis so that replicas
// serving the same dataset can share them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/flavorlab/nutrigraph/pkg/types"
)

var tracer = otel.Tracer("nutrigraph/cache")

// StatsCache stores statistics keyed by store revision.
type StatsCache interface {
	GetStats(ctx context.Context, revision uint64) (*types.Statistics, bool, error)
	PutStats(ctx context.Context, stats *types.Statistics) error
	Close() error
}

// Options configure a RedisCache.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	// Prefix namespaces keys; replicas sharing a prefix must serve the same data.
	Prefix string
}

// RedisCache is a StatsCache backed by Redis.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts Options, logger *slog.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Prefix == "" {
		opts.Prefix = "nutrigraph"
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisCache{rdb: rdb, ttl: opts.TTL, prefix: opts.Prefix, logger: logger}, nil
}

// StatsKey returns the Redis key for a revision.
func StatsKey(prefix string, revision uint64) string {
	return fmt.Sprintf("%s:stats:%d", prefix, revision)
}

// GetStats returns cached statistics for revision.
func (c *RedisCache) GetStats(ctx context.Context, revision uint64) (*types.Statistics, bool, error) {
	key := StatsKey(c.prefix, revision)
	ctx, span := tracer.Start(ctx, "cache.GetStats",
		trace.WithAttributes(attribute.String("redis.key", key)))
	defer span.End()

	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	s, err := Decode(data)
	if err != nil {
		span.RecordError(err)
		return nil, false, err
	}
	return s, true, nil
}

// PutStats stores statistics under their revision.
func (c *RedisCache) PutStats(ctx context.Context, stats *types.Statistics) error {
	key := StatsKey(c.prefix, stats.Revision)
	ctx, span := tracer.Start(ctx, "cache.PutStats",
		trace.WithAttributes(
			attribute.String("redis.key", key),
			attribute.Int64("redis.ttl_ms", c.ttl.Milliseconds()),
		))
	defer span.End()

	data, err := Encode(stats)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// Encode serializes statistics for storage.
func Encode(s *types.Statistics) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode statistics: %w", err)
	}
	return data, nil
}

// Decode parses statistics produced by Encode.
func Decode(data []byte) (*types.Statistics, error) {
	var s types.Statistics
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	return &s, nil
}
