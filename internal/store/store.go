// Package store holds received and sent messages and runs the revocation
// state machine. Per message id the states are unknown -> received ->
// revoked; deleted is an orthogonal, local-only flag. Tombstones arriving
// before their target are buffered in a pending set and resolved when the
// target message arrives.
//
// The store is purely mechanical: it owns all ChatMessage mutation but
// applies no authorization policy. Callers decide whether a tombstone may
// take effect.
package store

import (
	"sync"

	"cipherlink/internal/model"
)

type (
	MessageStore struct {
		mu       sync.Mutex
		messages map[string]*model.ChatMessage
		order    []string
		pending  map[string]*model.Tombstone
	}
)

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[string]*model.ChatMessage),
		pending:  make(map[string]*model.Tombstone),
	}
}

// Put stores a message if its id is unknown and reports whether it was
// added. A duplicate delivery is a no-op: no event must be emitted and no
// pending tombstone double-applied for it.
func (s *MessageStore) Put(msg *model.ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[msg.ID]; ok {
		return false
	}
	cp := *msg
	s.messages[msg.ID] = &cp
	s.order = append(s.order, msg.ID)
	return true
}

// Get returns a copy of the stored message.
func (s *MessageStore) Get(id string) (*model.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, false
	}
	cp := *msg
	return &cp, true
}

// MarkRevoked sets the one-way revoked flag. It reports whether the flag
// changed, so re-applying a tombstone is visibly a no-op, and whether the
// message is known at all.
func (s *MessageStore) MarkRevoked(id string) (changed, known bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return false, false
	}
	if msg.Revoked {
		return false, true
	}
	msg.Revoked = true
	return true, true
}

// MarkDeleted sets the local-only deleted flag on an existing entry. It has
// no wire effect and is never reversed.
func (s *MessageStore) MarkDeleted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return false
	}
	msg.Deleted = true
	return true
}

// AddPending buffers a tombstone whose target message is not yet known. The
// first tombstone per target wins; later duplicates are dropped.
func (s *MessageStore) AddPending(ts *model.Tombstone) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[ts.TargetMessageID]; ok {
		return
	}
	cp := *ts
	s.pending[ts.TargetMessageID] = &cp
}

// TakePending removes and returns the buffered tombstone for a target id,
// if any. The caller re-checks authorization before applying it.
func (s *MessageStore) TakePending(targetID string) (*model.Tombstone, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.pending[targetID]
	if !ok {
		return nil, false
	}
	delete(s.pending, targetID)
	return ts, true
}

// List returns copies of all non-deleted messages of a conversation in
// insertion order. Revoked messages stay listed; revocation marks, it does
// not remove.
func (s *MessageStore) List(conversationID string) []*model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.ChatMessage
	for _, id := range s.order {
		msg := s.messages[id]
		if msg.ConversationID != conversationID || msg.Deleted {
			continue
		}
		cp := *msg
		out = append(out, &cp)
	}
	return out
}
