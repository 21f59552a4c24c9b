package notify

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisNotifier publishes events to redis pub/sub channels, one channel per
// event name under the configured prefix. The UI gateway subscribes on the
// other side.
type RedisNotifier struct {
	client *redis.Client
	prefix string
}

func NewRedisNotifier(addr, password, prefix string) *RedisNotifier {
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
	}
}

func (n *RedisNotifier) Publish(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[notify] failed to encode %s payload: %v", event, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := n.client.Publish(ctx, n.prefix+event, data).Err(); err != nil {
		log.Printf("[notify] failed to publish %s: %v", event, err)
	}
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
