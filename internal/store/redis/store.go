// Per-user engine state in redis: one hash per user, so namespace purge
// is a single DEL.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/lussekatt/internal/models"
	"github.com/shrimpsizemoose/lussekatt/internal/store"
)

const stateKeyTpl = "state:%s" // state:${userID}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// ApplyMigrations is a no-op for redis; kept to satisfy StateStore.
func (s *RedisStore) ApplyMigrations(dir string) error {
	return nil
}

func key(userID string) string {
	return fmt.Sprintf(stateKeyTpl, userID)
}

func (s *RedisStore) GetNotifications(userID string) ([]models.Notification, error) {
	value, err := s.client.HGet(context.Background(), key(userID), store.KeyNotifications).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	var notifications []models.Notification
	if err := json.Unmarshal([]byte(value), &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode stored notifications: %w", err)
	}
	return notifications, nil
}

func (s *RedisStore) SaveNotifications(userID string, notifications []models.Notification) error {
	data, err := json.Marshal(notifications)
	if err != nil {
		return fmt.Errorf("failed to encode notifications: %w", err)
	}
	if err := s.client.HSet(context.Background(), key(userID), store.KeyNotifications, data).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) IncrCounter(userID, name string) (int64, error) {
	value, err := s.client.HIncrBy(context.Background(), key(userID), "counter:"+name, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	return value, nil
}

func (s *RedisStore) GetCounter(userID, name string) (int64, error) {
	value, err := s.client.HGet(context.Background(), key(userID), "counter:"+name).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis error: %w", err)
	}
	return value, nil
}

func (s *RedisStore) GetLastReload(userID string) (time.Time, error) {
	value, err := s.client.HGet(context.Background(), key(userID), store.KeyLastReload).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("redis error: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored reload timestamp: %w", err)
	}
	return ts, nil
}

func (s *RedisStore) SetLastReload(userID string, ts time.Time) error {
	value := ts.UTC().Format(time.RFC3339)
	if err := s.client.HSet(context.Background(), key(userID), store.KeyLastReload, value).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) Purge(userID string) error {
	if err := s.client.Del(context.Background(), key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to purge state for %s: %w", userID, err)
	}
	return nil
}
