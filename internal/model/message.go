package model

type (
	// ChatMessage is a decrypted message as held in the local store. The id
	// is a deterministic content hash, never random, so sender and receiver
	// always agree on it.
	//
	// Revoked is set by tombstone application and never unset. Deleted is a
	// local-only suppression flag: never transmitted, never reversed.
	ChatMessage struct {
		ID             string
		ConversationID string
		SenderID       string
		Text           string
		Timestamp      int64
		Revoked        bool
		Deleted        bool
	}

	// Tombstone is a revocation request targeting a prior message. Applying
	// it is idempotent even when it is delivered multiple times. A tombstone
	// only ever acts inside the conversation it was issued in; the target
	// message must belong to the same conversation.
	Tombstone struct {
		ConversationID  string
		TargetMessageID string
		IssuerID        string
		Timestamp       int64
	}
)
