// Package relay implements a minimal websocket publish/subscribe broker and
// the frame format it shares with the client-side transport. The broker
// only fans out to currently connected subscribers; it persists nothing.
package relay

const (
	KindSubscribe   = "subscribe"
	KindUnsubscribe = "unsubscribe"
	KindPublish     = "publish"
	KindDeliver     = "deliver"
	KindAck         = "ack"
)

type (
	// Frame is the single message type exchanged with the broker. Kind
	// selects which fields are meaningful; Seq correlates a request with
	// its ack. Acks to publish carry the delivery count.
	Frame struct {
		Kind    string `json:"kind"`
		Seq     int64  `json:"seq,omitempty"`
		Topic   string `json:"topic,omitempty"`
		Payload []byte `json:"payload,omitempty"`
		Count   int    `json:"count,omitempty"`
		Error   string `json:"error,omitempty"`
	}
)
