package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisAvailabilityCache struct {
	client redis.UniversalClient
}

func NewRedisAvailabilityCache(client redis.UniversalClient) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{
		client: client,
	}
}

// Get returns nil without an error on a cache miss.
func (c *RedisAvailabilityCache) Get(ctx context.Context, showtimeID int) (*domain.Availability, error) {
	data, err := c.client.Get(ctx, availabilityKey(showtimeID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, err
	}

	var availability domain.Availability

	err = json.Unmarshal(data, &availability)
	if err != nil {
		return nil, fmt.Errorf("decode cached availability: %w", err)
	}

	return &availability, nil
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, availability *domain.Availability, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(availability)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, availabilityKey(availability.ShowtimeID), data, ttl).Err()
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, showtimeID int) error {
	return c.client.Del(ctx, availabilityKey(showtimeID)).Err()
}

func availabilityKey(showtimeID int) string {
	return fmt.Sprintf("availability:%d", showtimeID)
}
