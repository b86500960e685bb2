package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTopicDerivation(t *testing.T) {
	require.Equal(t, "prefix/conv-1/json", Topic("prefix", "conv-1"))
}

func TestMemoryBusFanout(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	var got [][]byte
	_, err := bus.Subscribe(ctx, "t", func(p []byte) { got = append(got, p) })
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, "t", func(p []byte) { got = append(got, p) })
	require.NoError(t, err)

	count, err := bus.Publish(ctx, "t", []byte("x"), PublishOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Len(t, got, 2)
}

func TestMemoryBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewMemoryBus()

	count, err := bus.Publish(context.Background(), "empty", []byte("x"), PublishOptions{})
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	delivered := 0
	sub, err := bus.Subscribe(ctx, "t", func([]byte) { delivered++ })
	require.NoError(t, err)

	require.NoError(t, sub.Close())

	count, err := bus.Publish(ctx, "t", []byte("x"), PublishOptions{})
	require.NoError(t, err)
	require.Zero(t, count)
	require.Zero(t, delivered)
}

func TestPublishRetryBacksOffOnBrokerError(t *testing.T) {
	calls := 0
	start := time.Now()

	_, err := publishWithRetry(context.Background(), PublishOptions{MaxAttempts: 3, Timeout: 5 * time.Second},
		func(context.Context) (int, error) {
			calls++
			return 0, errors.New("broker down")
		})

	require.Error(t, err)
	require.Equal(t, 3, calls)
	// failed attempts are separated by the backoff, not retried hot
	require.GreaterOrEqual(t, time.Since(start), 2*publishRetryBackoff)
}

func TestPublishRetryStopsOnFirstDelivery(t *testing.T) {
	calls := 0

	count, err := publishWithRetry(context.Background(), PublishOptions{MaxAttempts: 5},
		func(context.Context) (int, error) {
			calls++
			if calls == 2 {
				return 4, nil
			}
			return 0, nil
		})

	require.NoError(t, err)
	require.Equal(t, 4, count)
	require.Equal(t, 2, calls)
}

func TestMemoryBusTopicsIsolated(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	var got []byte
	_, err := bus.Subscribe(ctx, "a", func(p []byte) { got = p })
	require.NoError(t, err)

	_, err = bus.Publish(ctx, "b", []byte("x"), PublishOptions{})
	require.NoError(t, err)
	require.Nil(t, got)
}
