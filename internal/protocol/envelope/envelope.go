// Package envelope implements the wire codec: canonical serialization of the
// signable projection, deterministic message ids, and the tagged
// chat/tombstone envelope that crosses the transport.
package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"cipherlink/internal/cryptographic/signature"
	"cipherlink/internal/errs"
)

// ProtocolVersion is the wire envelope version this codec speaks.
const ProtocolVersion = 1

type Kind string

const (
	KindChat      Kind = "chat"
	KindTombstone Kind = "tombstone"
)

type (
	// Envelope is the tagged union crossing the transport. Chat envelopes
	// carry nonce and ciphertext; tombstone envelopes carry the target
	// message id. It is built immediately before publish and parsed
	// immediately on receipt, never persisted.
	Envelope struct {
		V                        int    `json:"v"`
		Type                     Kind   `json:"type"`
		ConversationID           string `json:"conversationId"`
		MessageID                string `json:"messageId"`
		SenderID                 string `json:"senderId"`
		SenderSigningPublicKey   []byte `json:"senderSigningPublicKey"`
		SenderAgreementPublicKey []byte `json:"senderAgreementPublicKey"`
		Timestamp                int64  `json:"timestamp"`

		Nonce      []byte `json:"nonce,omitempty"`
		Ciphertext []byte `json:"ciphertext,omitempty"`

		TargetMessageID string `json:"targetMessageId,omitempty"`

		Signature []byte `json:"signature,omitempty"`
	}
)

// NewChat builds an unsigned chat envelope. The message id is derived from
// the content, never random.
func NewChat(conversationID, senderID string, signingPub, agreementPub, nonce, ciphertext []byte, timestamp int64) *Envelope {
	return &Envelope{
		V:                        ProtocolVersion,
		Type:                     KindChat,
		ConversationID:           conversationID,
		MessageID:                ComputeMessageID(conversationID, senderID, nonce, ciphertext, timestamp),
		SenderID:                 senderID,
		SenderSigningPublicKey:   signingPub,
		SenderAgreementPublicKey: agreementPub,
		Timestamp:                timestamp,
		Nonce:                    nonce,
		Ciphertext:               ciphertext,
	}
}

// NewTombstone builds an unsigned tombstone envelope targeting a prior
// message.
func NewTombstone(conversationID, senderID string, signingPub, agreementPub []byte, targetMessageID string, timestamp int64) *Envelope {
	return &Envelope{
		V:                        ProtocolVersion,
		Type:                     KindTombstone,
		ConversationID:           conversationID,
		MessageID:                ComputeTombstoneID(conversationID, senderID, targetMessageID, timestamp),
		SenderID:                 senderID,
		SenderSigningPublicKey:   signingPub,
		SenderAgreementPublicKey: agreementPub,
		Timestamp:                timestamp,
		TargetMessageID:          targetMessageID,
	}
}

// signable returns the projection that gets signed: every wire field except
// the signature itself. Byte fields appear as their base64 wire form so the
// canonical bytes match on both ends regardless of serialization.
func (e *Envelope) signable() map[string]any {
	m := map[string]any{
		"v":                        e.V,
		"type":                     string(e.Type),
		"conversationId":           e.ConversationID,
		"messageId":                e.MessageID,
		"senderId":                 e.SenderID,
		"senderSigningPublicKey":   base64.StdEncoding.EncodeToString(e.SenderSigningPublicKey),
		"senderAgreementPublicKey": base64.StdEncoding.EncodeToString(e.SenderAgreementPublicKey),
		"timestamp":                e.Timestamp,
	}
	switch e.Type {
	case KindChat:
		m["nonce"] = base64.StdEncoding.EncodeToString(e.Nonce)
		m["ciphertext"] = base64.StdEncoding.EncodeToString(e.Ciphertext)
	case KindTombstone:
		m["targetMessageId"] = e.TargetMessageID
	}
	return m
}

// SignableBytes returns the canonical form of the signable projection.
func (e *Envelope) SignableBytes() ([]byte, error) {
	return Canonicalize(e.signable())
}

// Sign computes the signature over the canonical signable projection and
// stores it on the envelope.
func (e *Envelope) Sign(signingPriv []byte) error {
	payload, err := e.SignableBytes()
	if err != nil {
		return err
	}
	sig, err := signature.ED25519Sign(signingPriv, payload)
	if err != nil {
		return &errs.ConfigurationError{Reason: fmt.Sprintf("sign: %v", err)}
	}
	e.Signature = sig
	return nil
}

// Verify checks the envelope signature against the sender's signing public
// key carried in the header.
func (e *Envelope) Verify() bool {
	payload, err := e.SignableBytes()
	if err != nil {
		return false
	}
	return signature.ED25519Verify(e.SenderSigningPublicKey, payload, e.Signature)
}

// Marshal serializes the envelope to its JSON wire form.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Parse deserializes and structurally validates a wire envelope. The type
// tag is matched exhaustively: an envelope must be exactly one of chat or
// tombstone, never both.
func Parse(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if e.V != ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version %d", e.V)
	}
	if e.ConversationID == "" || e.MessageID == "" || e.SenderID == "" {
		return nil, fmt.Errorf("envelope missing header fields")
	}
	if len(e.Signature) == 0 {
		return nil, fmt.Errorf("envelope missing signature")
	}

	switch e.Type {
	case KindChat:
		if len(e.Nonce) == 0 || len(e.Ciphertext) == 0 {
			return nil, fmt.Errorf("chat envelope missing nonce or ciphertext")
		}
		if e.TargetMessageID != "" {
			return nil, fmt.Errorf("chat envelope carries a target message id")
		}
	case KindTombstone:
		if e.TargetMessageID == "" {
			return nil, fmt.Errorf("tombstone envelope missing target message id")
		}
		if len(e.Nonce) != 0 || len(e.Ciphertext) != 0 {
			return nil, fmt.Errorf("tombstone envelope carries chat payload fields")
		}
	default:
		return nil, fmt.Errorf("unknown envelope type %q", e.Type)
	}
	return &e, nil
}
