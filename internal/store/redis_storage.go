package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStorage struct {
	rdb redis.UniversalClient
}

func (s *RedisStorage) Conn() redis.UniversalClient {
	return s.rdb
}

func (s *RedisStorage) Get(ctx context.Context, key string, val any) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, val)
}

func (s *RedisStorage) Set(ctx context.Context, key string, val any, expiresIn time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if expiresIn < 0 {
		expiresIn = 0
	}
	return s.rdb.Set(ctx, key, raw, expiresIn).Err()
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	deleted, err := s.rdb.Del(ctx, key).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func NewRedisStorage(db redis.UniversalClient) *RedisStorage {
	return &RedisStorage{
		rdb: db,
	}
}
