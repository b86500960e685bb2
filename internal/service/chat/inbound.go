package chat

import (
	"go.uber.org/zap"

	"cipherlink/internal/cryptographic/encryption"
	"cipherlink/internal/model"
	"cipherlink/internal/protocol/envelope"
	"cipherlink/internal/utils/log"
)

// onInbound is the transport delivery callback. Every failure on this path
// drops the single record and continues: a forged or corrupted envelope must
// never surface to listeners or crash the client.
func (c *Client) onInbound(raw []byte) {
	env, err := envelope.Parse(raw)
	if err != nil {
		log.Debug("dropping unparseable envelope", zap.Error(err))
		return
	}

	if !env.Verify() {
		log.Debug("dropping envelope with invalid signature",
			zap.String("conversation", env.ConversationID),
			zap.String("sender", env.SenderID))
		return
	}

	// the claimed sender id must match the signing key that just verified
	if model.IDFromSigningKey(env.SenderSigningPublicKey) != env.SenderID {
		log.Debug("dropping envelope with mismatched sender id",
			zap.String("sender", env.SenderID))
		return
	}

	switch env.Type {
	case envelope.KindChat:
		c.handleChat(env)
	case envelope.KindTombstone:
		c.handleTombstone(env)
	}
}

func (c *Client) handleChat(env *envelope.Envelope) {
	cfg, err := c.conversation(env.ConversationID)
	if err != nil {
		log.Debug("dropping chat for unknown conversation",
			zap.String("conversation", env.ConversationID))
		return
	}

	key, err := c.conversationKey(cfg)
	if err != nil {
		log.Warn("cannot resolve conversation key", zap.Error(err))
		return
	}

	plaintext, err := encryption.AEADDecrypt(key, env.Nonce, env.Ciphertext)
	if err != nil {
		// undecryptable with the current key; drop and keep processing
		log.Debug("dropping undecryptable chat message",
			zap.String("conversation", env.ConversationID),
			zap.Error(err))
		return
	}

	if envelope.ComputeMessageID(env.ConversationID, env.SenderID, env.Nonce, env.Ciphertext, env.Timestamp) != env.MessageID {
		log.Debug("dropping chat message with forged id",
			zap.String("message", env.MessageID))
		return
	}

	msg := &model.ChatMessage{
		ID:             env.MessageID,
		ConversationID: env.ConversationID,
		SenderID:       env.SenderID,
		Text:           string(plaintext),
		Timestamp:      env.Timestamp,
	}
	if !c.store.Put(msg) {
		// duplicate delivery: no event, no pending re-application
		return
	}

	c.emit(Event{Kind: EventMessageReceived, ConversationID: env.ConversationID, Message: msg})
	c.applyPending(cfg, msg)
}

func (c *Client) handleTombstone(env *envelope.Envelope) {
	cfg, err := c.conversation(env.ConversationID)
	if err != nil {
		log.Debug("dropping tombstone for unknown conversation",
			zap.String("conversation", env.ConversationID))
		return
	}

	ts := &model.Tombstone{
		ConversationID:  env.ConversationID,
		TargetMessageID: env.TargetMessageID,
		IssuerID:        env.SenderID,
		Timestamp:       env.Timestamp,
	}

	target, ok := c.store.Get(ts.TargetMessageID)
	if !ok {
		// the original sender is not known yet, so authorization cannot be
		// decided; buffer and re-check when the target arrives
		c.store.AddPending(ts)
		return
	}

	// the issuer's standing in this conversation must not reach into
	// another one; a tombstone naming a foreign message is dropped
	if target.ConversationID != env.ConversationID {
		log.Warn("dropping cross-conversation tombstone",
			zap.String("issuer", ts.IssuerID),
			zap.String("conversation", env.ConversationID),
			zap.String("target", ts.TargetMessageID))
		return
	}

	if !authorized(cfg, ts.IssuerID, target.SenderID) {
		log.Warn("dropping unauthorized tombstone",
			zap.String("issuer", ts.IssuerID),
			zap.String("target", ts.TargetMessageID))
		return
	}

	c.revokeLocally(env.ConversationID, ts.TargetMessageID)
}

// applyPending resolves a buffered tombstone once its target message is
// stored. The authorization check runs now, against the freshly known
// original sender.
func (c *Client) applyPending(cfg *model.ConversationConfig, msg *model.ChatMessage) {
	ts, ok := c.store.TakePending(msg.ID)
	if !ok {
		return
	}
	if ts.ConversationID != msg.ConversationID {
		log.Warn("discarding cross-conversation pending tombstone",
			zap.String("issuer", ts.IssuerID),
			zap.String("target", msg.ID))
		return
	}
	if !authorized(cfg, ts.IssuerID, msg.SenderID) {
		log.Warn("discarding unauthorized pending tombstone",
			zap.String("issuer", ts.IssuerID),
			zap.String("target", msg.ID))
		return
	}
	c.revokeLocally(msg.ConversationID, msg.ID)
}

func (c *Client) revokeLocally(conversationID, messageID string) {
	changed, _ := c.store.MarkRevoked(messageID)
	if !changed {
		return
	}
	if msg, ok := c.store.Get(messageID); ok {
		c.emit(Event{Kind: EventMessageRevoked, ConversationID: conversationID, Message: msg})
	}
}
