package transport

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cipherlink/internal/utils/log"
)

type (
	// RedisTransport delivers envelopes over redis pub/sub. A redis PUBLISH
	// reply is the number of clients that received the payload, which is
	// exactly the success count the core asks for.
	RedisTransport struct {
		rdb *redis.Client
	}

	redisSubscription struct {
		pubsub *redis.PubSub
		done   chan struct{}
	}
)

func NewRedisTransport(rdb *redis.Client) *RedisTransport {
	return &RedisTransport{rdb: rdb}
}

// WaitReady pings the broker until it answers or the deadline passes. Used
// as the bootstrap peer-wait.
func (t *RedisTransport) WaitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		if err := t.rdb.Ping(ctx).Err(); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func (t *RedisTransport) Publish(ctx context.Context, topic string, payload []byte, opts PublishOptions) (int, error) {
	return publishWithRetry(ctx, opts, func(ctx context.Context) (int, error) {
		n, err := t.rdb.Publish(ctx, topic, payload).Result()
		return int(n), err
	})
}

func (t *RedisTransport) Subscribe(ctx context.Context, topic string, onMessage func(payload []byte)) (Subscription, error) {
	pubsub := t.rdb.Subscribe(ctx, topic)

	// force the SUBSCRIBE round trip so failures surface here
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	sub := &redisSubscription{pubsub: pubsub, done: make(chan struct{})}
	go sub.pump(topic, onMessage)
	return sub, nil
}

func (s *redisSubscription) pump(topic string, onMessage func(payload []byte)) {
	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				log.Debug("redis subscription closed", zap.String("topic", topic))
				return
			}
			onMessage([]byte(msg.Payload))
		}
	}
}

func (t *RedisTransport) Close() error {
	return t.rdb.Close()
}

func (s *redisSubscription) Close() error {
	close(s.done)
	return s.pubsub.Close()
}
