package encryption

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"cipherlink/internal/errs"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestRoundTrip(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("attack at dawn")

	nonce, ciphertext, err := AEADEncrypt(key, plaintext)
	require.NoError(t, err)
	require.Len(t, nonce, NonceSize)
	require.NotEqual(t, plaintext, ciphertext)

	out, err := AEADDecrypt(key, nonce, ciphertext)
	require.NoError(t, err)
	require.Equal(t, plaintext, out)
}

func TestFreshNoncePerCall(t *testing.T) {
	key := testKey(t)

	n1, _, err := AEADEncrypt(key, []byte("x"))
	require.NoError(t, err)
	n2, _, err := AEADEncrypt(key, []byte("x"))
	require.NoError(t, err)
	require.NotEqual(t, n1, n2)
}

func TestTamperedCiphertextIsCryptoError(t *testing.T) {
	key := testKey(t)

	nonce, ciphertext, err := AEADEncrypt(key, []byte("hello"))
	require.NoError(t, err)

	ciphertext[0] ^= 0xff
	_, err = AEADDecrypt(key, nonce, ciphertext)
	require.Error(t, err)

	var cryptoErr *errs.CryptoError
	require.True(t, errors.As(err, &cryptoErr))
}

func TestWrongKeyIsCryptoError(t *testing.T) {
	nonce, ciphertext, err := AEADEncrypt(testKey(t), []byte("hello"))
	require.NoError(t, err)

	_, err = AEADDecrypt(testKey(t), nonce, ciphertext)
	var cryptoErr *errs.CryptoError
	require.True(t, errors.As(err, &cryptoErr))
}
