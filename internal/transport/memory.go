package transport

import (
	"context"
	"sync"
)

type (
	// MemoryBus is an in-process Transport. Deliveries are synchronous,
	// which keeps tests deterministic; subscribers must not block.
	MemoryBus struct {
		mu     sync.Mutex
		nextID int
		topics map[string]map[int]func([]byte)
	}

	memorySubscription struct {
		bus   *MemoryBus
		topic string
		id    int
	}
)

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		topics: make(map[string]map[int]func([]byte)),
	}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, payload []byte, opts PublishOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	b.mu.Lock()
	handlers := make([]func([]byte), 0, len(b.topics[topic]))
	for _, h := range b.topics[topic] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		cp := make([]byte, len(payload))
		copy(cp, payload)
		h(cp)
	}
	return len(handlers), nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, topic string, onMessage func(payload []byte)) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.topics[topic] == nil {
		b.topics[topic] = make(map[int]func([]byte))
	}
	id := b.nextID
	b.nextID++
	b.topics[topic][id] = onMessage

	return &memorySubscription{bus: b, topic: topic, id: id}, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = make(map[string]map[int]func([]byte))
	return nil
}

func (s *memorySubscription) Close() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.topics[s.topic], s.id)
	return nil
}
