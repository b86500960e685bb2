// Package transport defines the publish/subscribe collaborator the
// messaging core delegates delivery to, plus the concrete adapters: redis
// pub/sub, the websocket relay, and an in-process bus.
package transport

import (
	"context"
	"fmt"
	"time"
)

type (
	// PublishOptions bound a single publish call.
	PublishOptions struct {
		Timeout     time.Duration
		MaxAttempts int
	}

	// Subscription is the handle returned by Subscribe; closing it stops
	// delivery to the callback.
	Subscription interface {
		Close() error
	}

	// Transport is the external delivery collaborator. Publish returns the
	// number of successful deliveries; zero is not an error at this layer,
	// the caller decides what zero deliveries mean.
	Transport interface {
		Publish(ctx context.Context, topic string, payload []byte, opts PublishOptions) (int, error)
		Subscribe(ctx context.Context, topic string, onMessage func(payload []byte)) (Subscription, error)
		Close() error
	}
)

// Topic derives the content topic of a conversation from the configured
// prefix: {prefix}/{conversationID}/json.
func Topic(prefix, conversationID string) string {
	return fmt.Sprintf("%s/%s/json", prefix, conversationID)
}

const publishRetryBackoff = 100 * time.Millisecond

// publishWithRetry drives one publish attempt loop under the PublishOptions
// bounds. A broker error and a zero-delivery reply both wait one backoff
// interval before the next attempt; the loop ends on the first delivery,
// when attempts are exhausted, or when the context ends.
func publishWithRetry(ctx context.Context, opts PublishOptions, attempt func(ctx context.Context) (int, error)) (int, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		n, err := attempt(ctx)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
		} else if n > 0 {
			return n, nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(publishRetryBackoff):
		}
	}
	return 0, lastErr
}
