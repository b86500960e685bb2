package model

import (
	"encoding/hex"

	"cipherlink/internal/cryptographic/dh"
	"cipherlink/internal/cryptographic/signature"
)

type (
	// Identity holds a participant's full key material: an Ed25519 signing
	// keypair and an X25519 agreement keypair. Created once per participant,
	// immutable for process lifetime.
	Identity struct {
		ID string

		SigningPub  []byte
		SigningPriv []byte

		AgreementPub  [32]byte
		AgreementPriv [32]byte
	}

	// Participant is the public projection of an Identity, exchanged out of
	// band (e.g. through the participant directory).
	Participant struct {
		ID                 string `bson:"_id" json:"id"`
		SigningPublicKey   []byte `bson:"signing_public_key" json:"signingPublicKey"`
		AgreementPublicKey []byte `bson:"agreement_public_key" json:"agreementPublicKey"`
	}
)

// NewIdentity generates fresh signing and agreement keypairs. The identity id
// is the hex encoding of the Ed25519 public key, so it is stable and
// deterministic for a given keypair.
func NewIdentity() (*Identity, error) {
	signingPub, signingPriv, err := signature.NewEd25519Keypair()
	if err != nil {
		return nil, err
	}

	agreePriv, agreePub, err := dh.NewX25519KeyPair()
	if err != nil {
		return nil, err
	}

	return &Identity{
		ID:            IDFromSigningKey(signingPub),
		SigningPub:    signingPub,
		SigningPriv:   signingPriv,
		AgreementPub:  agreePub,
		AgreementPriv: agreePriv,
	}, nil
}

// IDFromSigningKey derives the participant id from an Ed25519 public key.
func IDFromSigningKey(signingPub []byte) string {
	return hex.EncodeToString(signingPub)
}

// Participant returns the public projection of the identity.
func (i *Identity) Participant() *Participant {
	return &Participant{
		ID:                 i.ID,
		SigningPublicKey:   i.SigningPub,
		AgreementPublicKey: i.AgreementPub[:],
	}
}
