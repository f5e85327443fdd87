package mocks

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockRedisClient covers the commands the availability cache and the event
// publisher issue. Any other command panics through the nil embedded client.
type MockRedisClient struct {
	mock.Mock
	redis.UniversalClient
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	return m.Called(ctx, key).Get(0).(*redis.StringCmd)
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	return m.Called(ctx, key, value, ttl).Get(0).(*redis.StatusCmd)
}

func (m *MockRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return m.Called(ctx, keys).Get(0).(*redis.IntCmd)
}

func (m *MockRedisClient) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	return m.Called(ctx, channel, message).Get(0).(*redis.IntCmd)
}

// RedisDown is a server-side failure as go-redis reports it.
func RedisDown(msg string) error {
	return redisError(msg)
}

type redisError string

func (e redisError) Error() string { return string(e) }

// RedisError marks the type as a redis.Error.
func (redisError) RedisError() {}
