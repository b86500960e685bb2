package relay

import (
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cipherlink/internal/utils/log"
)

type (
	Broker struct {
		mu   sync.Mutex
		subs map[string]map[*brokerConn]struct{}
	}

	// brokerConn serializes writes; gorilla websocket allows one concurrent
	// writer per connection.
	brokerConn struct {
		mu   sync.Mutex
		conn *websocket.Conn
	}
)

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[*brokerConn]struct{}),
	}
}

// Handler returns the HTTP handler exposing the broker at /ws.
func (b *Broker) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/ws", b.handleWS()).Methods(http.MethodGet)
	return r
}

func (b *Broker) handleWS() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "Failed to upgrade", http.StatusInternalServerError)
			return
		}
		go b.serveConn(&brokerConn{conn: conn})
	}
}

func (b *Broker) serveConn(c *brokerConn) {
	defer b.dropConn(c)

	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			log.Debug("relay connection closed", zap.Error(err))
			return
		}

		switch f.Kind {
		case KindSubscribe:
			b.subscribe(f.Topic, c)
			c.send(&Frame{Kind: KindAck, Seq: f.Seq, Topic: f.Topic})
		case KindUnsubscribe:
			b.unsubscribe(f.Topic, c)
			c.send(&Frame{Kind: KindAck, Seq: f.Seq, Topic: f.Topic})
		case KindPublish:
			count := b.deliver(f.Topic, f.Payload)
			c.send(&Frame{Kind: KindAck, Seq: f.Seq, Topic: f.Topic, Count: count})
		default:
			c.send(&Frame{Kind: KindAck, Seq: f.Seq, Error: "unknown frame kind: " + f.Kind})
		}
	}
}

func (b *Broker) subscribe(topic string, c *brokerConn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*brokerConn]struct{})
	}
	b.subs[topic][c] = struct{}{}
}

func (b *Broker) unsubscribe(topic string, c *brokerConn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[topic], c)
}

// deliver fans a payload out to every subscriber of the topic, including
// the publisher if it is subscribed, and returns the number of successful
// writes.
func (b *Broker) deliver(topic string, payload []byte) int {
	b.mu.Lock()
	conns := make([]*brokerConn, 0, len(b.subs[topic]))
	for c := range b.subs[topic] {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	count := 0
	for _, c := range conns {
		if err := c.send(&Frame{Kind: KindDeliver, Topic: topic, Payload: payload}); err == nil {
			count++
		}
	}
	return count
}

func (b *Broker) dropConn(c *brokerConn) {
	b.mu.Lock()
	for topic := range b.subs {
		delete(b.subs[topic], c)
	}
	b.mu.Unlock()
	c.conn.Close()
}

func (c *brokerConn) send(f *Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(f)
}
