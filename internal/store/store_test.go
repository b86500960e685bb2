package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cipherlink/internal/model"
)

func msg(id, conv, sender string) *model.ChatMessage {
	return &model.ChatMessage{ID: id, ConversationID: conv, SenderID: sender, Text: "t-" + id}
}

func TestPutDeduplicatesByID(t *testing.T) {
	s := NewMessageStore()

	require.True(t, s.Put(msg("m1", "c1", "alice")))
	require.False(t, s.Put(msg("m1", "c1", "alice")))

	require.Len(t, s.List("c1"), 1)
}

func TestMarkRevokedIsIdempotentAndOneWay(t *testing.T) {
	s := NewMessageStore()
	s.Put(msg("m1", "c1", "alice"))

	changed, known := s.MarkRevoked("m1")
	require.True(t, known)
	require.True(t, changed)

	changed, known = s.MarkRevoked("m1")
	require.True(t, known)
	require.False(t, changed)

	got, ok := s.Get("m1")
	require.True(t, ok)
	require.True(t, got.Revoked)

	_, known = s.MarkRevoked("missing")
	require.False(t, known)
}

func TestPendingTombstoneResolvedOnLateArrival(t *testing.T) {
	s := NewMessageStore()

	s.AddPending(&model.Tombstone{TargetMessageID: "m1", IssuerID: "alice"})

	// first tombstone per target wins
	s.AddPending(&model.Tombstone{TargetMessageID: "m1", IssuerID: "mallory"})

	s.Put(msg("m1", "c1", "alice"))
	ts, ok := s.TakePending("m1")
	require.True(t, ok)
	require.Equal(t, "alice", ts.IssuerID)

	// taking is destructive
	_, ok = s.TakePending("m1")
	require.False(t, ok)
}

func TestDeletedMessagesFilteredFromList(t *testing.T) {
	s := NewMessageStore()
	s.Put(msg("m1", "c1", "alice"))
	s.Put(msg("m2", "c1", "bob"))

	require.True(t, s.MarkDeleted("m1"))
	require.False(t, s.MarkDeleted("missing"))

	list := s.List("c1")
	require.Len(t, list, 1)
	require.Equal(t, "m2", list[0].ID)

	// deleted entries stay retrievable directly
	got, ok := s.Get("m1")
	require.True(t, ok)
	require.True(t, got.Deleted)
}

func TestRevokedMessagesStayListed(t *testing.T) {
	s := NewMessageStore()
	s.Put(msg("m1", "c1", "alice"))
	s.MarkRevoked("m1")

	list := s.List("c1")
	require.Len(t, list, 1)
	require.True(t, list[0].Revoked)
}

func TestListScopedToConversationInInsertionOrder(t *testing.T) {
	s := NewMessageStore()
	s.Put(msg("m1", "c1", "alice"))
	s.Put(msg("m2", "c2", "alice"))
	s.Put(msg("m3", "c1", "bob"))

	list := s.List("c1")
	require.Len(t, list, 2)
	require.Equal(t, "m1", list[0].ID)
	require.Equal(t, "m3", list[1].ID)
}

func TestListReturnsCopies(t *testing.T) {
	s := NewMessageStore()
	s.Put(msg("m1", "c1", "alice"))

	s.List("c1")[0].Revoked = true

	got, _ := s.Get("m1")
	require.False(t, got.Revoked)
}
