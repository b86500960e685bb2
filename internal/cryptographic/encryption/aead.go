package encryption

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	"cipherlink/internal/errs"
)

// XChaCha20-Poly1305 helper. key must be 32 bytes; we produce keys of 32
// bytes from the KDF. The 24-byte nonce is generated fresh per call and
// returned separately so the wire format can carry it as its own field.

const NonceSize = chacha20poly1305.NonceSizeX

func AEADEncrypt(key, plaintext []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, nil, fmt.Errorf("chacha20poly1305.NewX: %w", err)
	}
	nonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("rand.Read nonce: %w", err)
	}
	ciphertext = aead.Seal(nil, nonce, plaintext, nil)
	return nonce, ciphertext, nil
}

// AEADDecrypt opens a ciphertext produced by AEADEncrypt. A tag mismatch is
// reported as a CryptoError: the message is undecryptable with the current
// key, not a fatal condition.
func AEADDecrypt(key, nonce, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305.NewX: %w", err)
	}
	if len(nonce) != NonceSize {
		return nil, &errs.CryptoError{Op: "decrypt", Err: fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(nonce))}
	}
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, &errs.CryptoError{Op: "decrypt", Err: err}
	}
	return plain, nil
}
