package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pendergraft/launchcache/internal/config"
)

const defaultRedisPrefix = "launchcache"

// RedisKV keeps cache timestamps and preferences in Redis.
// Keys are "<prefix>:ts:<key>" and "<prefix>:pref:<key>"
type RedisKV struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisKV connects to Redis and pings it once
func NewRedisKV(cfg config.RedisConfig, logger *slog.Logger) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.Addr, err)
	}

	logger.Info("connected to redis", "addr", cfg.Addr, "db", cfg.DB)
	return NewRedisKVFromClient(client, cfg.Prefix, logger), nil
}

// NewRedisKVFromClient wraps an existing client
func NewRedisKVFromClient(client *redis.Client, prefix string, logger *slog.Logger) *RedisKV {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisKV{client: client, prefix: prefix, logger: logger}
}

func (r *RedisKV) tsKey(key string) string   { return r.prefix + ":ts:" + key }
func (r *RedisKV) prefKey(key string) string { return r.prefix + ":pref:" + key }

// Close closes the client
func (r *RedisKV) Close() error {
	return r.client.Close()
}

// GetCacheTimestamp returns the last write instant for key
func (r *RedisKV) GetCacheTimestamp(ctx context.Context, key string) (time.Time, error) {
	raw, err := r.client.Get(ctx, r.tsKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get timestamp %s: %w", key, err)
	}
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt timestamp %s: %w", key, err)
	}
	return time.Unix(0, nanos).UTC(), nil
}

// SetCacheTimestamp records the last write instant for key
func (r *RedisKV) SetCacheTimestamp(ctx context.Context, key string, at time.Time) error {
	if err := r.client.Set(ctx, r.tsKey(key), strconv.FormatInt(at.UnixNano(), 10), 0).Err(); err != nil {
		return fmt.Errorf("failed to set timestamp %s: %w", key, err)
	}
	return nil
}

// DeleteCacheTimestamp removes the timestamp for key
func (r *RedisKV) DeleteCacheTimestamp(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.tsKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete timestamp %s: %w", key, err)
	}
	return nil
}

// ListCacheTimestamps scans every timestamp key under the prefix
func (r *RedisKV) ListCacheTimestamps(ctx context.Context) (map[string]time.Time, error) {
	result := make(map[string]time.Time)
	base := r.tsKey("")

	iter := r.client.Scan(ctx, 0, base+"*", 0).Iterator()
	for iter.Next(ctx) {
		full := iter.Val()
		key := strings.TrimPrefix(full, base)
		at, err := r.GetCacheTimestamp(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result[key] = at
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan timestamps: %w", err)
	}
	return result, nil
}

// GetPreference returns the stored blob for key
func (r *RedisKV) GetPreference(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, r.prefKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preference %s: %w", key, err)
	}
	return value, nil
}

// SetPreference stores a blob under key
func (r *RedisKV) SetPreference(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set preference %s: %w", key, err)
	}
	return nil
}
