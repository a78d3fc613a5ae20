package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finpak/go-wallet-core/pkg/config"
	"github.com/finpak/go-wallet-core/pkg/logger"
)

const (
	NotificationQueue = "notification_events"
	FailedQueue       = "failed_notification_events"
)

type RedisClient struct {
	Client *redis.Client
}

// Notification is the queue payload handed off after a ledger commit.
// Delivery is best-effort; the committed financial state never depends on it.
type Notification struct {
	OwnerID   string                 `json:"owner_id"`
	Kind      string                 `json:"kind"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func NewRedisClient(cfg config.Config) *RedisClient {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to parse Redis url", logger.Fields{"error": err.Error(), "url": cfg.RedisURL})
		opt = &redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       0,
		}
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Error("Failed to connect to Redis", logger.Fields{"error": err.Error(), "url": cfg.RedisURL})

	} else {
		logger.Info("Connected to Redis", logger.Fields{"url": cfg.RedisURL})
	}

	return &RedisClient{Client: rdb}
}

func (r *RedisClient) PublishNotification(ctx context.Context, event Notification) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %v", err)
	}

	if err := r.Client.RPush(ctx, NotificationQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to push notification to redis: %v", err)
	}

	return nil
}

// Pop blocks up to timeout for the next queued notification.
func (r *RedisClient) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	result, err := r.Client.BLPop(ctx, timeout, NotificationQueue).Result()
	if err != nil {
		return nil, err
	}
	return []byte(result[1]), nil
}

func (r *RedisClient) PushToDLQ(ctx context.Context, data []byte) error {
	if err := r.Client.RPush(ctx, FailedQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to push notification to DLQ: %v", err)
	}
	return nil
}
