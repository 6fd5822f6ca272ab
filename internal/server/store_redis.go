package server

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps all balances in a single Redis hash.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, key: prefix + "balances"}
}

func (s *RedisStore) Get(ctx context.Context, username string) (int64, bool, error) {
	v, err := s.client.HGet(ctx, s.key, username).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (s *RedisStore) Put(ctx context.Context, username string, money int64) error {
	return s.client.HSet(ctx, s.key, username, money).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
