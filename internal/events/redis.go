package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisRoomChannelPrefix   = "toguz:room:"
	redisPlayerChannelPrefix = "toguz:player:"
)

// RedisPublisher fans events out over Redis pub/sub so other nodes can relay them.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func RoomChannel(roomID string) string {
	return redisRoomChannelPrefix + roomID
}

func PlayerChannel(playerID string) string {
	return redisPlayerChannelPrefix + playerID
}

func (that *RedisPublisher) Publish(ctx context.Context, roomID string, event Event) error {
	return that.publish(ctx, RoomChannel(roomID), event)
}

func (that *RedisPublisher) PublishToPlayer(ctx context.Context, playerID string, event Event) error {
	return that.publish(ctx, PlayerChannel(playerID), event)
}

func (that *RedisPublisher) publish(ctx context.Context, channel string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not marshal event: %w", err)
	}

	if err = that.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	return nil
}

func (that *RedisPublisher) Close() error {
	if err := that.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}
