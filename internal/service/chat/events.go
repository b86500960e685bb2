package chat

import "cipherlink/internal/model"

type (
	EventKind string

	// Event is delivered synchronously to registered listeners. Message is
	// a copy of the store entry at emission time.
	Event struct {
		Kind           EventKind
		ConversationID string
		Message        *model.ChatMessage
	}

	Listener func(Event)
)

const (
	EventMessageReceived EventKind = "message_received"
	EventMessageRevoked  EventKind = "message_revoked"
)

// AddListener registers a listener and returns a function removing it.
func (c *Client) AddListener(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextListener
	c.nextListener++
	c.listeners[id] = l

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Client) emit(ev Event) {
	c.mu.Lock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}
