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
	"context"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/jeremyhahn/go-passkey/pkg/encoding/base64url"
)

// RegistrationVerdict is the outcome of a successful attestation
// verification: the material the ceremony persists as a new credential.
type RegistrationVerdict struct {
	CredentialID string
	PublicKey    string
	SignCount    uint32
	DeviceType   DeviceType
	BackedUp     bool
	Transports   []protocol.AuthenticatorTransport
}

// AuthenticationVerdict is the outcome of a successful assertion
// verification. NewSignCount is the counter reported by the
// authenticator; the ceremony persists it on the stored credential.
type AuthenticationVerdict struct {
	NewSignCount uint32
}

// Verifier performs the cryptographic half of both ceremonies. It is
// stateless: challenge bookkeeping and credential persistence belong to
// the Service, which passes the expected challenge in explicitly.
type Verifier interface {

	// BuildRegistrationOptions produces the publicKey creation options
	// sent to the browser, along with the challenge the options embed.
	// exclude lists credential descriptors the authenticator must not
	// re-register.
	BuildRegistrationOptions(ctx context.Context, user *UserRecord,
		exclude []protocol.CredentialDescriptor) (*protocol.CredentialCreation, string, error)

	// VerifyRegistration validates an attestation response against the
	// expected challenge and returns the parsed credential material.
	// Any signature, origin, RP id or challenge failure is reported as
	// ErrVerificationFailed.
	VerifyRegistration(ctx context.Context, user *UserRecord, expectedChallenge string,
		response *protocol.ParsedCredentialCreationData) (*RegistrationVerdict, error)

	// VerifyAuthentication validates an assertion response produced by
	// the stored credential. Counter regression and clone detection are
	// reported as ErrVerificationFailed; authenticators that never
	// increment (counter fixed at zero) are accepted.
	VerifyAuthentication(ctx context.Context, user *UserRecord, stored *Credential,
		expectedChallenge string, response *protocol.ParsedCredentialAssertionData) (*AuthenticationVerdict, error)
}

// webauthnVerifier adapts the go-webauthn library to the Verifier
// interface. Session data is reconstructed from the expected challenge
// rather than kept server-side, so verification works with any
// ChallengeStore backend.
type webauthnVerifier struct {
	webauthn *webauthn.WebAuthn
	config   *Config
}

// NewWebAuthnVerifier creates the default Verifier from the relying
// party configuration.
func NewWebAuthnVerifier(config *Config) (Verifier, error) {
	if config == nil {
		return nil, NewError("new verifier", ErrNotConfigured)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	wa, err := webauthn.New(config.ToWebAuthnConfig())
	if err != nil {
		return nil, WrapError("new verifier", err)
	}
	return &webauthnVerifier{webauthn: wa, config: config}, nil
}

func (v *webauthnVerifier) BuildRegistrationOptions(ctx context.Context, user *UserRecord,
	exclude []protocol.CredentialDescriptor) (*protocol.CredentialCreation, string, error) {

	cu, err := newCeremonyUser(user)
	if err != nil {
		return nil, "", WrapError("build registration options", err)
	}

	options, session, err := v.webauthn.BeginRegistration(cu,
		webauthn.WithExclusions(exclude))
	if err != nil {
		return nil, "", WrapError("build registration options", err)
	}
	return options, session.Challenge, nil
}

func (v *webauthnVerifier) VerifyRegistration(ctx context.Context, user *UserRecord,
	expectedChallenge string, response *protocol.ParsedCredentialCreationData) (*RegistrationVerdict, error) {

	cu, err := newCeremonyUser(user)
	if err != nil {
		return nil, WrapError("verify registration", err)
	}

	// Expires is left zero so the library skips its own expiry check;
	// challenge lifetime is enforced by the store's TTL. CredParams must
	// mirror the list BeginRegistration embedded in the options: the
	// library checks the credential's algorithm against it, and an empty
	// list rejects every credential.
	session := webauthn.SessionData{
		Challenge:  expectedChallenge,
		UserID:     cu.WebAuthnID(),
		CredParams: webauthn.CredentialParametersDefault(),
	}

	credential, err := v.webauthn.CreateCredential(cu, session, response)
	if err != nil {
		return nil, NewError("verify registration",
			fmt.Errorf("%w: %v", ErrVerificationFailed, err))
	}

	return &RegistrationVerdict{
		CredentialID: base64url.Encode(credential.ID),
		PublicKey:    base64url.Encode(credential.PublicKey),
		SignCount:    credential.Authenticator.SignCount,
		DeviceType:   deviceTypeFromFlags(credential.Flags.BackupEligible),
		BackedUp:     credential.Flags.BackupState,
		Transports:   credential.Transport,
	}, nil
}

func (v *webauthnVerifier) VerifyAuthentication(ctx context.Context, user *UserRecord,
	stored *Credential, expectedChallenge string,
	response *protocol.ParsedCredentialAssertionData) (*AuthenticationVerdict, error) {

	cu, err := newCeremonyUser(user)
	if err != nil {
		return nil, WrapError("verify authentication", err)
	}

	waCred, err := stored.toWebAuthn()
	if err != nil {
		return nil, WrapError("verify authentication", err)
	}
	cu.credentials = []webauthn.Credential{waCred}

	session := webauthn.SessionData{
		Challenge: expectedChallenge,
		UserID:    cu.WebAuthnID(),
	}

	validated, err := v.webauthn.ValidateLogin(cu, session, response)
	if err != nil {
		return nil, NewError("verify authentication",
			fmt.Errorf("%w: %v", ErrVerificationFailed, err))
	}

	// The library flags a non-incrementing counter instead of failing
	// the login. A regressed counter means a cloned authenticator, so
	// treat it as a hard failure. Authenticators that report zero on
	// every assertion never trip the flag.
	if validated.Authenticator.CloneWarning {
		return nil, NewError("verify authentication",
			fmt.Errorf("%w: signature counter regression", ErrVerificationFailed))
	}

	return &AuthenticationVerdict{
		NewSignCount: validated.Authenticator.SignCount,
	}, nil
}

func deviceTypeFromFlags(backupEligible bool) DeviceType {
	if backupEligible {
		return DeviceTypeMultiDevice
	}
	return DeviceTypeSingleDevice
}

// ceremonyUser satisfies webauthn.User for a stored user record.
type ceremonyUser struct {
	record      *UserRecord
	id          []byte
	credentials []webauthn.Credential
}

func newCeremonyUser(user *UserRecord) (*ceremonyUser, error) {
	if user == nil {
		return nil, ErrInvalidRequest
	}
	id, err := user.handle()
	if err != nil {
		return nil, err
	}
	return &ceremonyUser{record: user, id: id}, nil
}

func (u *ceremonyUser) WebAuthnID() []byte {
	return u.id
}

func (u *ceremonyUser) WebAuthnName() string {
	return u.record.Username
}

func (u *ceremonyUser) WebAuthnDisplayName() string {
	return u.record.Username
}

func (u *ceremonyUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}
