// Package chat is the messaging core orchestrator: it resolves conversation
// keys, builds and verifies signed envelopes, runs the local message store
// and revocation state machine, and drives the external publish/subscribe
// transport.
package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cipherlink/internal/cryptographic/encryption"
	"cipherlink/internal/errs"
	"cipherlink/internal/model"
	"cipherlink/internal/protocol/envelope"
	"cipherlink/internal/protocol/keyring"
	"cipherlink/internal/store"
	"cipherlink/internal/transport"
)

type (
	// Options bound the suspendable operations of a client.
	Options struct {
		TopicPrefix      string
		SendTimeout      time.Duration
		SubscribeTimeout time.Duration
		MaxSendAttempts  int
	}

	// Client is one participant's messaging core. Every client owns its own
	// store, key cache and subscription state; nothing is shared across
	// instances.
	Client struct {
		identity *model.Identity
		tr       transport.Transport
		store    *store.MessageStore
		opts     Options

		mu            sync.Mutex
		conversations map[string]*model.ConversationConfig
		keys          map[string][]byte
		subs          map[string]*subState
		listeners     map[int]Listener
		nextListener  int
	}

	// subState is the start-once latch deduplicating concurrent subscribe
	// attempts for one conversation. Waiters block on done; err is set
	// before done closes.
	subState struct {
		done   chan struct{}
		err    error
		handle transport.Subscription
	}
)

const (
	DefaultSendTimeout      = 10 * time.Second
	DefaultSubscribeTimeout = 10 * time.Second
	DefaultMaxSendAttempts  = 3
	DefaultTopicPrefix      = "cipherlink"
)

func NewClient(identity *model.Identity, tr transport.Transport, opts Options) *Client {
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = DefaultTopicPrefix
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.SubscribeTimeout <= 0 {
		opts.SubscribeTimeout = DefaultSubscribeTimeout
	}
	if opts.MaxSendAttempts <= 0 {
		opts.MaxSendAttempts = DefaultMaxSendAttempts
	}

	return &Client{
		identity:      identity,
		tr:            tr,
		store:         store.NewMessageStore(),
		opts:          opts,
		conversations: make(map[string]*model.ConversationConfig),
		keys:          make(map[string][]byte),
		subs:          make(map[string]*subState),
		listeners:     make(map[int]Listener),
	}
}

// Identity returns the public projection of this client's identity.
func (c *Client) Identity() *model.Participant {
	return c.identity.Participant()
}

// RegisterConversation validates and records a conversation configuration.
// Invalid configurations are rejected before any send or receive can touch
// them.
func (c *Client) RegisterConversation(cfg *model.ConversationConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *cfg
	c.conversations[cfg.ID] = &cp
	delete(c.keys, cfg.ID)
	return nil
}

func (c *Client) conversation(id string) (*model.ConversationConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, ok := c.conversations[id]
	if !ok {
		return nil, &errs.ConfigurationError{Reason: "unknown conversation: " + id}
	}
	return cfg, nil
}

// conversationKey resolves and caches the symmetric key of a conversation.
func (c *Client) conversationKey(cfg *model.ConversationConfig) ([]byte, error) {
	c.mu.Lock()
	if key, ok := c.keys[cfg.ID]; ok {
		c.mu.Unlock()
		return key, nil
	}
	c.mu.Unlock()

	var (
		key []byte
		err error
	)
	switch cfg.Kind {
	case model.ConversationDirect:
		key, err = keyring.DeriveDirectKey(cfg.ID, c.identity.AgreementPriv, [32]byte(cfg.Peer.AgreementPublicKey))
	case model.ConversationGroup:
		key, err = keyring.DeriveGroupKey(cfg.ID, cfg.SharedKey)
	default:
		err = &errs.ConfigurationError{Reason: "unknown conversation kind: " + string(cfg.Kind)}
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.keys[cfg.ID] = key
	c.mu.Unlock()
	return key, nil
}

// Send encrypts, signs, stores and publishes a chat message. The local
// store and the local event commit before the transport publish is awaited;
// a publish failure surfaces as a TransportError but is never rolled back,
// and the returned message stays valid.
func (c *Client) Send(ctx context.Context, conversationID, text string) (*model.ChatMessage, error) {
	cfg, err := c.conversation(conversationID)
	if err != nil {
		return nil, err
	}
	key, err := c.conversationKey(cfg)
	if err != nil {
		return nil, err
	}

	nonce, ciphertext, err := encryption.AEADEncrypt(key, []byte(text))
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().UnixMilli()
	env := envelope.NewChat(
		conversationID,
		c.identity.ID,
		c.identity.SigningPub,
		c.identity.AgreementPub[:],
		nonce,
		ciphertext,
		timestamp,
	)
	if err := env.Sign(c.identity.SigningPriv); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{
		ID:             env.MessageID,
		ConversationID: conversationID,
		SenderID:       c.identity.ID,
		Text:           text,
		Timestamp:      timestamp,
	}
	if c.store.Put(msg) {
		c.emit(Event{Kind: EventMessageReceived, ConversationID: conversationID, Message: msg})
		c.applyPending(cfg, msg)
	}

	if err := c.publish(ctx, conversationID, env); err != nil {
		return msg, err
	}
	return msg, nil
}

// Revoke issues a tombstone for a message this client is allowed to revoke:
// its own, or any message if it is a conversation admin. The revocation is
// applied locally before the tombstone is published.
func (c *Client) Revoke(ctx context.Context, conversationID, messageID string) error {
	cfg, err := c.conversation(conversationID)
	if err != nil {
		return err
	}

	msg, ok := c.store.Get(messageID)
	if !ok || msg.ConversationID != conversationID {
		return &errs.NotFoundError{ID: messageID}
	}
	if !authorized(cfg, c.identity.ID, msg.SenderID) {
		return &errs.AuthorizationError{
			IssuerID: c.identity.ID,
			Reason:   "only the original sender or a conversation admin may revoke",
		}
	}

	timestamp := time.Now().UnixMilli()
	env := envelope.NewTombstone(
		conversationID,
		c.identity.ID,
		c.identity.SigningPub,
		c.identity.AgreementPub[:],
		messageID,
		timestamp,
	)
	if err := env.Sign(c.identity.SigningPriv); err != nil {
		return err
	}

	if changed, _ := c.store.MarkRevoked(messageID); changed {
		if revoked, ok := c.store.Get(messageID); ok {
			c.emit(Event{Kind: EventMessageRevoked, ConversationID: conversationID, Message: revoked})
		}
	}

	return c.publish(ctx, conversationID, env)
}

// Delete suppresses a message from this client's view. Purely local: it is
// never transmitted and never reversed.
func (c *Client) Delete(messageID string) error {
	if !c.store.MarkDeleted(messageID) {
		return &errs.NotFoundError{ID: messageID}
	}
	return nil
}

// Messages returns the non-deleted messages of a conversation in insertion
// order. Revoked messages are included; filtering them is a presentation
// choice.
func (c *Client) Messages(conversationID string) []*model.ChatMessage {
	return c.store.List(conversationID)
}

func (c *Client) publish(ctx context.Context, conversationID string, env *envelope.Envelope) error {
	payload, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	topic := transport.Topic(c.opts.TopicPrefix, conversationID)
	count, err := c.tr.Publish(ctx, topic, payload, transport.PublishOptions{
		Timeout:     c.opts.SendTimeout,
		MaxAttempts: c.opts.MaxSendAttempts,
	})
	if err != nil {
		return &errs.TransportError{Op: "publish", Err: err}
	}
	if count == 0 {
		return &errs.TransportError{Op: "publish", Err: errors.New("no successful deliveries")}
	}
	return nil
}

func authorized(cfg *model.ConversationConfig, issuerID, originalSenderID string) bool {
	return issuerID == originalSenderID || cfg.IsAdmin(issuerID)
}
