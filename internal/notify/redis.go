// README: Redis Pub/Sub publisher.
package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(redis *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: redis}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.redis.Publish(ctx, topic, payload).Err()
}
