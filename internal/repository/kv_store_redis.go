package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisKeyValueStore struct {
	client *redis.Client
}

func NewRedisKeyValueStore(client *redis.Client) KeyValueStore {
	return &redisKeyValueStore{client: client}
}

func (s *redisKeyValueStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisKeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *redisKeyValueStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
