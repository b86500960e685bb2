package keyring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"cipherlink/internal/cryptographic/dh"
	"cipherlink/internal/errs"
)

func TestDirectKeyAgreesAcrossParties(t *testing.T) {
	alicePriv, alicePub, err := dh.NewX25519KeyPair()
	require.NoError(t, err)
	bobPriv, bobPub, err := dh.NewX25519KeyPair()
	require.NoError(t, err)

	aliceKey, err := DeriveDirectKey("conv-1", alicePriv, bobPub)
	require.NoError(t, err)
	bobKey, err := DeriveDirectKey("conv-1", bobPriv, alicePub)
	require.NoError(t, err)

	require.Equal(t, aliceKey, bobKey)
	require.Len(t, aliceKey, KeySize)
}

func TestDirectKeyBoundToConversation(t *testing.T) {
	alicePriv, _, err := dh.NewX25519KeyPair()
	require.NoError(t, err)
	_, bobPub, err := dh.NewX25519KeyPair()
	require.NoError(t, err)

	k1, err := DeriveDirectKey("conv-1", alicePriv, bobPub)
	require.NoError(t, err)
	k2, err := DeriveDirectKey("conv-2", alicePriv, bobPub)
	require.NoError(t, err)

	require.NotEqual(t, k1, k2)
}

func TestGroupKeyDeterministic(t *testing.T) {
	secret := []byte("pre-shared group secret")

	k1, err := DeriveGroupKey("conv-1", secret)
	require.NoError(t, err)
	k2, err := DeriveGroupKey("conv-1", secret)
	require.NoError(t, err)
	require.Equal(t, k1, k2)
	require.Len(t, k1, KeySize)

	other, err := DeriveGroupKey("conv-2", secret)
	require.NoError(t, err)
	require.NotEqual(t, k1, other)
}

func TestGroupAndDirectDomainsSeparated(t *testing.T) {
	// the same underlying secret must yield different keys for the two
	// conversation kinds
	priv, pub, err := dh.NewX25519KeyPair()
	require.NoError(t, err)
	secret, err := dh.X25519SharedSecret(priv, pub)
	require.NoError(t, err)

	groupKey, err := DeriveGroupKey("conv-1", secret)
	require.NoError(t, err)
	directKey, err := DeriveDirectKey("conv-1", priv, pub)
	require.NoError(t, err)
	require.NotEqual(t, groupKey, directKey)
}

func TestEmptyGroupSecretRejected(t *testing.T) {
	_, err := DeriveGroupKey("conv-1", nil)
	require.Error(t, err)

	var cfgErr *errs.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}
