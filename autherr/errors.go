package autherr

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateEmail reports a signup for an email that is already registered.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput reports a malformed signup request (email syntax, password policy).
	ErrInvalidInput = errors.New("invalid input")
	// ErrChallengeExpired reports a missing, consumed, or expired 2FA challenge.
	ErrChallengeExpired = errors.New("two-factor challenge expired")
	// ErrChallengeInvalid reports a 2FA code that does not match the pending challenge.
	ErrChallengeInvalid = errors.New("two-factor challenge invalid")
	// ErrLocked reports that the brute-force guard blocks further attempts.
	ErrLocked = errors.New("attempts locked")
	// ErrTokenExpired reports a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid reports a malformed token or a bad signature.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenRevoked reports a token whose fingerprint is on the revocation list.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrDependencyUnavailable reports a collaborator (store, backend, sender) that could not answer.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

var kinds = []error{
	ErrDuplicateEmail,
	ErrInvalidCredentials,
	ErrInvalidInput,
	ErrChallengeExpired,
	ErrChallengeInvalid,
	ErrLocked,
	ErrTokenExpired,
	ErrTokenInvalid,
	ErrTokenRevoked,
	ErrDependencyUnavailable,
}

// Kinds returns every declared kind in a stable order.
func Kinds() []error {
	out := make([]error, len(kinds))
	copy(out, kinds)
	return out
}

// Classify returns the kind err belongs to. A nil error classifies as nil and
// anything unrecognized classifies as ErrDependencyUnavailable, so an unexpected
// failure is never mistaken for a pass.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrDependencyUnavailable
}

// Unavailable wraps cause as ErrDependencyUnavailable while keeping its text.
func Unavailable(cause error) error {
	if cause == nil {
		return ErrDependencyUnavailable
	}
	if errors.Is(cause, ErrDependencyUnavailable) {
		return cause
	}
	return fmt.Errorf("%w: %v", ErrDependencyUnavailable, cause)
}
