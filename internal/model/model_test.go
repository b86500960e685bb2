package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"cipherlink/internal/cryptographic/dh"
	"cipherlink/internal/errs"
)

func TestIdentityIDDerivedFromSigningKey(t *testing.T) {
	identity, err := NewIdentity()
	require.NoError(t, err)

	require.Equal(t, IDFromSigningKey(identity.SigningPub), identity.ID)
	require.Len(t, identity.SigningPub, 32)
	require.Len(t, identity.SigningPriv, 64)

	// the agreement keypair is internally consistent
	require.Equal(t, dh.PublicFromPrivate(identity.AgreementPriv), identity.AgreementPub)
}

func TestParticipantProjection(t *testing.T) {
	identity, err := NewIdentity()
	require.NoError(t, err)

	p := identity.Participant()
	require.Equal(t, identity.ID, p.ID)
	require.Equal(t, identity.SigningPub, p.SigningPublicKey)
	require.Equal(t, identity.AgreementPub[:], p.AgreementPublicKey)
}

func TestConversationConfigValidate(t *testing.T) {
	identity, err := NewIdentity()
	require.NoError(t, err)
	peer := identity.Participant()

	cases := map[string]*ConversationConfig{
		"empty id":            {Kind: ConversationDirect, Peer: peer},
		"direct without peer": {ID: "c", Kind: ConversationDirect},
		"group without key":   {ID: "c", Kind: ConversationGroup},
		"unknown kind":        {ID: "c", Kind: "broadcast"},
		"short peer key": {ID: "c", Kind: ConversationDirect, Peer: &Participant{
			ID: "p", AgreementPublicKey: []byte{1, 2, 3},
		}},
	}
	for name, cfg := range cases {
		err := cfg.Validate()
		require.Error(t, err, "case %q", name)
		var cfgErr *errs.ConfigurationError
		require.True(t, errors.As(err, &cfgErr), "case %q", name)
	}

	require.NoError(t, (&ConversationConfig{ID: "c", Kind: ConversationDirect, Peer: peer}).Validate())
	require.NoError(t, (&ConversationConfig{ID: "c", Kind: ConversationGroup, SharedKey: []byte("k")}).Validate())
}

func TestIsAdmin(t *testing.T) {
	cfg := &ConversationConfig{Admins: []string{"a", "b"}}
	require.True(t, cfg.IsAdmin("a"))
	require.False(t, cfg.IsAdmin("c"))
	require.False(t, (&ConversationConfig{}).IsAdmin("a"))
}
