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
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/jeremyhahn/go-passkey/pkg/validation"
)

// BeginRegistration starts an attestation ceremony for username. The
// user record is created on first contact; an existing user may add
// additional credentials, with every credential already on the record
// placed on the exclude list so the authenticator refuses to re-create
// one it already holds.
//
// The returned options embed a freshly issued challenge bound to the
// username for the configured TTL.
func (s *Service) BeginRegistration(ctx context.Context, username string) (*protocol.CredentialCreation, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, NewError("begin registration", fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}

	user, err := s.users.GetUser(ctx, username)
	if IsUserNotFound(err) {
		user = NewUserRecord(username)
		if err := s.users.PutUser(ctx, user); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	exclude := make([]protocol.CredentialDescriptor, 0, len(user.Credentials))
	for i := range user.Credentials {
		descriptor, err := user.Credentials[i].descriptor()
		if err != nil {
			return nil, WrapError("begin registration", err)
		}
		exclude = append(exclude, descriptor)
	}

	options, challenge, err := s.verifier.BuildRegistrationOptions(ctx, user, exclude)
	if err != nil {
		return nil, err
	}

	if err := s.challenges.IssueRegistration(ctx, challenge, username); err != nil {
		return nil, err
	}
	challengesIssued.WithLabelValues("registration").Inc()

	s.logger.Debug("registration challenge issued",
		"username", username,
		"credentials", len(user.Credentials))

	return options, nil
}

// FinishRegistration completes an attestation ceremony. The challenge
// embedded in the response is consumed exactly once: a second submission
// of the same response fails with ErrChallengeExpired. The challenge
// must have been issued for the same username; a mismatch fails the
// ceremony without touching the record.
//
// Re-registering a credential id the user already owns is treated as a
// replayed success and returns verified without modifying the stored
// credential. A credential id owned by a different user fails
// verification.
func (s *Service) FinishRegistration(ctx context.Context, username string,
	response *protocol.ParsedCredentialCreationData) (*Result, error) {

	if response == nil {
		return nil, NewError("finish registration", ErrInvalidRequest)
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, NewError("finish registration", fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}

	challenge := response.Response.CollectedClientData.Challenge
	boundUsername, err := s.challenges.ConsumeRegistration(ctx, challenge)
	if err != nil {
		registrations.WithLabelValues("failure").Inc()
		return nil, err
	}
	if boundUsername != username {
		registrations.WithLabelValues("failure").Inc()
		return nil, NewError("finish registration", ErrUsernameMismatch)
	}

	user, err := s.users.GetUser(ctx, username)
	if err != nil {
		registrations.WithLabelValues("failure").Inc()
		return nil, err
	}

	verdict, err := s.verifier.VerifyRegistration(ctx, user, challenge, response)
	if err != nil {
		registrations.WithLabelValues("failure").Inc()
		return nil, err
	}

	if user.HasCredential(verdict.CredentialID) {
		// The same attestation arriving twice, e.g. a client retry.
		s.logger.Warn("duplicate credential registration",
			"username", username,
			"credentialID", verdict.CredentialID)
		registrations.WithLabelValues("success").Inc()
		return s.result(username)
	}

	// The credential id must not be claimable by a second account.
	if _, _, err := s.users.FindByCredentialID(ctx, verdict.CredentialID); err == nil {
		registrations.WithLabelValues("failure").Inc()
		return nil, NewError("finish registration", ErrVerificationFailed)
	} else if !IsCredentialNotRegistered(err) {
		registrations.WithLabelValues("failure").Inc()
		return nil, err
	}

	transports := verdict.Transports
	if len(transports) == 0 {
		transports = []protocol.AuthenticatorTransport{protocol.Internal}
	}

	now := time.Now().UTC()
	user.Credentials = append(user.Credentials, Credential{
		ID:         verdict.CredentialID,
		PublicKey:  verdict.PublicKey,
		SignCount:  verdict.SignCount,
		DeviceType: verdict.DeviceType,
		BackedUp:   verdict.BackedUp,
		Transports: transports,
		CreatedAt:  now,
		LastUsedAt: now,
	})

	if err := s.users.PutUser(ctx, user); err != nil {
		registrations.WithLabelValues("failure").Inc()
		return nil, err
	}

	registrations.WithLabelValues("success").Inc()
	s.logger.Info("credential registered",
		"username", username,
		"credentialID", verdict.CredentialID,
		"deviceType", verdict.DeviceType)

	return s.result(username)
}
