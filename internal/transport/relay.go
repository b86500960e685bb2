package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cipherlink/internal/relay"
	"cipherlink/internal/utils/log"
)

type (
	// RelayTransport speaks the relay broker's frame protocol over a single
	// websocket connection. Publish acks carry the broker's delivery count.
	RelayTransport struct {
		conn    *websocket.Conn
		writeMu sync.Mutex

		mu       sync.Mutex
		seq      int64
		acks     map[int64]chan *relay.Frame
		handlers map[string]map[int]func([]byte)
		nextSub  int

		closed chan struct{}
		once   sync.Once
	}

	relaySubscription struct {
		t     *RelayTransport
		topic string
		id    int
	}
)

// DialRelay connects to a relay broker websocket endpoint, e.g.
// ws://localhost:9090/ws.
func DialRelay(ctx context.Context, url string) (*RelayTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	t := &RelayTransport{
		conn:     conn,
		acks:     make(map[int64]chan *relay.Frame),
		handlers: make(map[string]map[int]func([]byte)),
		closed:   make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

func (t *RelayTransport) readLoop() {
	defer t.shutdown()

	for {
		var f relay.Frame
		if err := t.conn.ReadJSON(&f); err != nil {
			log.Debug("relay transport connection closed", zap.Error(err))
			return
		}

		switch f.Kind {
		case relay.KindDeliver:
			t.mu.Lock()
			handlers := make([]func([]byte), 0, len(t.handlers[f.Topic]))
			for _, h := range t.handlers[f.Topic] {
				handlers = append(handlers, h)
			}
			t.mu.Unlock()
			for _, h := range handlers {
				h(f.Payload)
			}
		case relay.KindAck:
			t.mu.Lock()
			ch, ok := t.acks[f.Seq]
			if ok {
				delete(t.acks, f.Seq)
			}
			t.mu.Unlock()
			if ok {
				cp := f
				ch <- &cp
			}
		}
	}
}

// request sends a frame and waits for its correlated ack.
func (t *RelayTransport) request(ctx context.Context, f *relay.Frame) (*relay.Frame, error) {
	ch := make(chan *relay.Frame, 1)

	t.mu.Lock()
	t.seq++
	f.Seq = t.seq
	t.acks[f.Seq] = ch
	t.mu.Unlock()

	t.writeMu.Lock()
	err := t.conn.WriteJSON(f)
	t.writeMu.Unlock()
	if err != nil {
		t.mu.Lock()
		delete(t.acks, f.Seq)
		t.mu.Unlock()
		return nil, err
	}

	select {
	case ack := <-ch:
		if ack.Error != "" {
			return nil, fmt.Errorf("relay: %s", ack.Error)
		}
		return ack, nil
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.acks, f.Seq)
		t.mu.Unlock()
		return nil, ctx.Err()
	case <-t.closed:
		return nil, fmt.Errorf("relay connection closed")
	}
}

func (t *RelayTransport) Publish(ctx context.Context, topic string, payload []byte, opts PublishOptions) (int, error) {
	return publishWithRetry(ctx, opts, func(ctx context.Context) (int, error) {
		ack, err := t.request(ctx, &relay.Frame{Kind: relay.KindPublish, Topic: topic, Payload: payload})
		if err != nil {
			return 0, err
		}
		return ack.Count, nil
	})
}

func (t *RelayTransport) Subscribe(ctx context.Context, topic string, onMessage func(payload []byte)) (Subscription, error) {
	t.mu.Lock()
	if t.handlers[topic] == nil {
		t.handlers[topic] = make(map[int]func([]byte))
	}
	id := t.nextSub
	t.nextSub++
	t.handlers[topic][id] = onMessage
	t.mu.Unlock()

	if _, err := t.request(ctx, &relay.Frame{Kind: relay.KindSubscribe, Topic: topic}); err != nil {
		t.mu.Lock()
		delete(t.handlers[topic], id)
		t.mu.Unlock()
		return nil, err
	}
	return &relaySubscription{t: t, topic: topic, id: id}, nil
}

func (t *RelayTransport) Close() error {
	t.shutdown()
	return t.conn.Close()
}

func (t *RelayTransport) shutdown() {
	t.once.Do(func() { close(t.closed) })
}

func (s *relaySubscription) Close() error {
	s.t.mu.Lock()
	delete(s.t.handlers[s.topic], s.id)
	empty := len(s.t.handlers[s.topic]) == 0
	s.t.mu.Unlock()

	if empty {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.t.request(ctx, &relay.Frame{Kind: relay.KindUnsubscribe, Topic: s.topic}); err != nil {
			return err
		}
	}
	return nil
}
