package chat

import (
	"context"

	"cipherlink/internal/errs"
	"cipherlink/internal/transport"
)

// Join ensures this client is subscribed to a conversation's content topic.
// Concurrent calls for the same conversation share a single in-flight
// subscribe: later callers wait on the first one's latch instead of issuing
// duplicate subscribes to the transport. A successful subscription is cached
// as terminal until Leave.
func (c *Client) Join(ctx context.Context, conversationID string) error {
	if _, err := c.conversation(conversationID); err != nil {
		return err
	}

	c.mu.Lock()
	if st, ok := c.subs[conversationID]; ok {
		c.mu.Unlock()
		select {
		case <-st.done:
			return st.err
		case <-ctx.Done():
			return &errs.TransportError{Op: "subscribe", Err: ctx.Err()}
		}
	}
	st := &subState{done: make(chan struct{})}
	c.subs[conversationID] = st
	c.mu.Unlock()

	subCtx, cancel := context.WithTimeout(ctx, c.opts.SubscribeTimeout)
	defer cancel()

	topic := transport.Topic(c.opts.TopicPrefix, conversationID)
	handle, err := c.tr.Subscribe(subCtx, topic, c.onInbound)
	if err != nil {
		st.err = &errs.TransportError{Op: "subscribe", Err: err}
		c.mu.Lock()
		delete(c.subs, conversationID) // allow a later retry
		c.mu.Unlock()
		close(st.done)
		return st.err
	}

	st.handle = handle
	close(st.done)
	return nil
}

// Leave closes the conversation's subscription handle and clears the cached
// terminal subscribe state.
func (c *Client) Leave(conversationID string) error {
	c.mu.Lock()
	st, ok := c.subs[conversationID]
	if ok {
		delete(c.subs, conversationID)
	}
	c.mu.Unlock()

	if !ok {
		return nil
	}
	<-st.done
	if st.handle == nil {
		return nil
	}
	return st.handle.Close()
}

// Close leaves every subscribed conversation.
func (c *Client) Close() error {
	c.mu.Lock()
	ids := make([]string, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	var firstErr error
	for _, id := range ids {
		if err := c.Leave(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
