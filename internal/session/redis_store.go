package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// RedisStore keeps each session as one hash with a sliding expiry.
type RedisStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisStore(client *redisv9.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	sessionKey := s.sessionKey(sessionID)
	value, err := s.client.HGet(ctx, sessionKey, key).Result()
	if errors.Is(err, redisv9.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get session value failed: %w", err)
	}
	if err := s.client.Expire(ctx, sessionKey, s.ttl).Err(); err != nil {
		return "", false, fmt.Errorf("redis refresh session ttl failed: %w", err)
	}
	return value, true, nil
}

// SetNX runs HSETNX and HGET in one MULTI block so every caller reads back the
// value that won.
func (s *RedisStore) SetNX(ctx context.Context, sessionID, key, value string) (string, error) {
	sessionKey := s.sessionKey(sessionID)

	var stored *redisv9.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.HSetNX(ctx, sessionKey, key, value)
		stored = pipe.HGet(ctx, sessionKey, key)
		pipe.Expire(ctx, sessionKey, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis set session value failed: %w", err)
	}
	return stored.Val(), nil
}

func (s *RedisStore) Destroy(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	return nil
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("taskbox:session:%s", sessionID)
}
