package credentials

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when no credential is linked for the user.
var ErrNotFound = errors.New("credential not found")

// MissingKeyError is returned when no encryption secret is configured at call
// time. Operator action required; not retryable.
type MissingKeyError struct{}

// Error implements the error interface.
func (MissingKeyError) Error() string {
	return "credential encryption key is not configured"
}

// TokenFormatError is returned when a stored credential does not parse as
// nonce:tag:ciphertext hex. Indicates data corruption or a caller bug.
type TokenFormatError struct {
	Reason string
}

// Error implements the error interface.
func (e TokenFormatError) Error() string {
	return fmt.Sprintf("encrypted credential is malformed: %s", e.Reason)
}

// VerificationError is returned when the authentication tag does not verify.
// Deliberately carries no detail about why.
type VerificationError struct{}

// Error implements the error interface.
func (VerificationError) Error() string {
	return "encrypted credential failed verification"
}
