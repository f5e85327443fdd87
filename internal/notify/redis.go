package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/metinatakli/seat-reservation-core/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisChannel = "booking-events"

// RedisPublisher fans booking events out to every API instance so each can
// push them to the clients connected to it.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

func NewRedisPublisher(client redis.UniversalClient, channel string, logger *slog.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultRedisChannel
	}

	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.BookingStatusChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding booking event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publishing booking event to redis: %w", err)
	}

	return nil
}

// Listen subscribes to the channel and hands every decoded event to deliver
// until ctx is canceled.
func (p *RedisPublisher) Listen(ctx context.Context, deliver func(domain.BookingStatusChanged)) error {
	sub := p.client.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", p.channel, err)
	}

	messages := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var event domain.BookingStatusChanged
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				p.logger.Warn("dropping malformed booking event", "channel", msg.Channel, "error", err)
				continue
			}

			deliver(event)
		}
	}
}
