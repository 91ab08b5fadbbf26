package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportTTL bounds how long a computed report may serve before it is
// recomputed even without a new upload.
const ReportTTL = 15 * time.Minute

// RedisCache stores computed report payloads keyed by upload and filter so
// repeated dashboard requests do not re-rank the whole table.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache connection.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

// Close closes the Redis connection.
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// HealthCheck pings Redis to verify connection.
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// ReportKey builds the cache key for one (upload, filter) combination.
func ReportKey(uploadID, dayFilter, startDate string) string {
	return fmt.Sprintf("victoria:report:%s:%s:%s", uploadID, dayFilter, startDate)
}

// SetReport stores a serialized report.
func (rc *RedisCache) SetReport(ctx context.Context, key string, payload []byte) error {
	return rc.client.Set(ctx, key, payload, ReportTTL).Err()
}

// GetReport retrieves a serialized report; the second return is false on a
// cache miss.
func (rc *RedisCache) GetReport(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := rc.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

// InvalidateUpload drops every cached report computed from one upload.
func (rc *RedisCache) InvalidateUpload(ctx context.Context, uploadID string) error {
	pattern := fmt.Sprintf("victoria:report:%s:*", uploadID)

	iter := rc.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rc.client.Del(ctx, keys...).Err()
}
