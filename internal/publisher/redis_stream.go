package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// leaderboardStream carries one event per ingested chat export so sibling
// services (notification bots, dashboards) can react to new standings.
const leaderboardStream = "leaderboard.updated"

// RedisPublisher publishes events to Redis streams.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a new Redis stream publisher.
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
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

	return &RedisPublisher{
		client: client,
	}, nil
}

// Close closes the Redis connection.
func (rp *RedisPublisher) Close() error {
	return rp.client.Close()
}

// UploadEvent describes one ingested snapshot.
type UploadEvent struct {
	UploadID    string `json:"upload_id"`
	Source      string `json:"source"`
	ResultCount int    `json:"result_count"`
}

// PublishUpload announces a freshly ingested snapshot on the stream.
func (rp *RedisPublisher) PublishUpload(ctx context.Context, event UploadEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: leaderboardStream,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
