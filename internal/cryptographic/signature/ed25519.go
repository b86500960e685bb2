package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

func NewEd25519Keypair() ([]byte, []byte, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

func ED25519Sign(privKeyBytes []byte, message []byte) ([]byte, error) {
	if len(privKeyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signing private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(privKeyBytes))
	}
	return ed25519.Sign(ed25519.PrivateKey(privKeyBytes), message), nil
}

func ED25519Verify(pubKeyBytes []byte, message []byte, signature []byte) bool {
	if len(pubKeyBytes) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pubKeyBytes), message, signature)
}
