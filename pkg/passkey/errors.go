// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package passkey

import (
	"errors"
	"fmt"
)

// Sentinel errors for ceremony operations. Transport layers map these to
// client-facing failures; the message never reveals which verification
// step failed.
var (
	// ErrChallengeExpired is returned when a challenge is absent, already
	// consumed, or past its TTL. The three cases are indistinguishable on
	// purpose.
	ErrChallengeExpired = errors.New("challenge expired or invalid")

	// ErrUsernameMismatch is returned when a registration response is
	// submitted for a different username than the challenge was bound to.
	ErrUsernameMismatch = errors.New("username mismatch")

	// ErrCredentialNotRegistered is returned when a presented credential id
	// is unknown to the relying party.
	ErrCredentialNotRegistered = errors.New("credential not registered")

	// ErrUserNotFound is returned when a user record cannot be found.
	ErrUserNotFound = errors.New("user not found")

	// ErrVerificationFailed is returned when the credential verifier
	// rejects a response, including counter-regression rejections.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrDuplicateCredential indicates an attempt to register a credential
	// id that already exists. Re-submission by the owning user is treated
	// as idempotent success; this sentinel is logged, not surfaced.
	ErrDuplicateCredential = errors.New("credential already registered")

	// ErrInvalidRequest is returned when required ceremony input is missing
	// or malformed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotConfigured is returned when the service is missing required
	// dependencies.
	ErrNotConfigured = errors.New("passkey service not configured")
)

// Error wraps a ceremony error with the operation that produced it.
type Error struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with the given operation and error.
func NewError(op string, err error) error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(op, err)
}

// IsChallengeExpired returns true if the error indicates a consumed,
// missing or expired challenge.
func IsChallengeExpired(err error) bool {
	return errors.Is(err, ErrChallengeExpired)
}

// IsUsernameMismatch returns true if the error indicates a bound-username
// mismatch.
func IsUsernameMismatch(err error) bool {
	return errors.Is(err, ErrUsernameMismatch)
}

// IsCredentialNotRegistered returns true if the error indicates an unknown
// credential id.
func IsCredentialNotRegistered(err error) bool {
	return errors.Is(err, ErrCredentialNotRegistered)
}

// IsUserNotFound returns true if the error indicates a missing user record.
func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

// IsVerificationFailed returns true if the error indicates the verifier
// rejected a response.
func IsVerificationFailed(err error) bool {
	return errors.Is(err, ErrVerificationFailed)
}

// IsCeremonyFailure returns true for errors that represent a failed
// ceremony rather than an infrastructure fault. Transport layers use this
// to choose between 4xx- and 5xx-class responses.
func IsCeremonyFailure(err error) bool {
	return IsChallengeExpired(err) ||
		IsUsernameMismatch(err) ||
		IsCredentialNotRegistered(err) ||
		IsUserNotFound(err) ||
		IsVerificationFailed(err) ||
		errors.Is(err, ErrInvalidRequest)
}
