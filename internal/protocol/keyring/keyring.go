// Package keyring derives per-conversation symmetric keys. It is stateless:
// every call is a pure function of its inputs.
package keyring

import (
	"fmt"

	"cipherlink/internal/cryptographic/dh"
	"cipherlink/internal/cryptographic/kdf"
	"cipherlink/internal/errs"
)

// KeySize is the length of every derived conversation key.
const KeySize = 32

// domainSalt separates this protocol's key derivation from any other use of
// the same underlying secrets. It must never change between versions that
// need to interoperate.
var domainSalt = []byte("cipherlink/conversation-key/v1")

// DeriveDirectKey performs an X25519 exchange with the peer and binds the
// result to the conversation, so the same pair of participants gets a
// different key for every conversation.
func DeriveDirectKey(conversationID string, localAgreementPriv, remoteAgreementPub [32]byte) ([]byte, error) {
	secret, err := dh.X25519SharedSecret(localAgreementPriv, remoteAgreementPub)
	if err != nil {
		return nil, &errs.ConfigurationError{Reason: fmt.Sprintf("x25519 exchange: %v", err)}
	}
	return derive(secret, "direct:"+conversationID)
}

// DeriveGroupKey stretches a statically distributed shared secret into the
// conversation key.
func DeriveGroupKey(conversationID string, sharedSecret []byte) ([]byte, error) {
	if len(sharedSecret) == 0 {
		return nil, &errs.ConfigurationError{Reason: "group shared secret is empty"}
	}
	return derive(sharedSecret, "group:"+conversationID)
}

func derive(secret []byte, info string) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := kdf.HKDF(secret, domainSalt, []byte(info), key); err != nil {
		return nil, &errs.ConfigurationError{Reason: fmt.Sprintf("hkdf: %v", err)}
	}
	return key, nil
}
