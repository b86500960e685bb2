package model

import "cipherlink/internal/errs"

type (
	ConversationKind string

	// ConversationConfig describes one conversation this client takes part
	// in. Direct conversations derive their key from an X25519 exchange with
	// the single peer; group conversations require a pre-shared symmetric
	// key distributed out of band.
	ConversationConfig struct {
		ID   string
		Kind ConversationKind

		// Peer is the one other participant of a direct conversation.
		Peer *Participant

		// SharedKey is the pre-shared group key. Required for group
		// conversations, ignored for direct ones.
		SharedKey []byte

		// Admins lists participant ids allowed to revoke any message in the
		// conversation. The original sender may always revoke its own.
		Admins []string
	}
)

const (
	ConversationDirect ConversationKind = "direct"
	ConversationGroup  ConversationKind = "group"
)

// Validate rejects configurations that must never reach the send or receive
// path: a direct conversation without exactly one peer, a group conversation
// without its shared key.
func (c *ConversationConfig) Validate() error {
	if c.ID == "" {
		return &errs.ConfigurationError{Reason: "conversation id is empty"}
	}

	switch c.Kind {
	case ConversationDirect:
		if c.Peer == nil {
			return &errs.ConfigurationError{Reason: "direct conversation requires a peer"}
		}
		if len(c.Peer.AgreementPublicKey) != 32 {
			return &errs.ConfigurationError{Reason: "peer agreement public key must be 32 bytes"}
		}
	case ConversationGroup:
		if len(c.SharedKey) == 0 {
			return &errs.ConfigurationError{Reason: "group conversation requires a shared key"}
		}
	default:
		return &errs.ConfigurationError{Reason: "unknown conversation kind: " + string(c.Kind)}
	}
	return nil
}

// IsAdmin reports whether id is in the conversation's admin set.
func (c *ConversationConfig) IsAdmin(id string) bool {
	for _, admin := range c.Admins {
		if admin == id {
			return true
		}
	}
	return false
}
