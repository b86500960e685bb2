// Package errs defines the error taxonomy shared by the messaging core.
//
// Configuration, authorization, transport and not-found errors propagate to
// the caller of the failing operation. Crypto errors on the receive path are
// always recovered locally: a hostile or corrupted peer must not be able to
// crash a client.
package errs

import "fmt"

type (
	// ConfigurationError reports missing or malformed configuration: an
	// unknown conversation, a group conversation without a shared key,
	// key material of the wrong length.
	ConfigurationError struct {
		Reason string
	}

	// AuthorizationError reports a revoke attempted by an issuer that is
	// neither the original sender nor a conversation admin.
	AuthorizationError struct {
		IssuerID string
		Reason   string
	}

	// CryptoError reports a failed signature verification or AEAD open.
	// Non-fatal: the single inbound record is dropped and processing
	// continues.
	CryptoError struct {
		Op  string
		Err error
	}

	// TransportError reports a publish or subscribe failure, including
	// timeouts and zero-delivery publishes.
	TransportError struct {
		Op  string
		Err error
	}

	// NotFoundError reports an operation on a message id that is not
	// known locally.
	NotFoundError struct {
		ID string
	}
)

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Reason)
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization: issuer %s: %s", e.IssuerID, e.Reason)
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto: %s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error { return e.Err }

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: message %s", e.ID)
}
