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
	"github.com/jeremyhahn/go-passkey/pkg/encoding/base64url"
	"github.com/jeremyhahn/go-passkey/pkg/validation"
)

// BeginAuthentication starts a username-less assertion ceremony. No user
// lookup happens here: any authenticator holding a discoverable
// credential for this relying party may answer. The challenge and its
// lookup id are valid for the configured TTL.
func (s *Service) BeginAuthentication(ctx context.Context) (*AuthenticationChallenge, error) {
	challenge, challengeID, err := s.challenges.IssueAuthentication(ctx)
	if err != nil {
		return nil, err
	}
	challengesIssued.WithLabelValues("authentication").Inc()

	s.logger.Debug("authentication challenge issued", "challengeID", challengeID)

	return &AuthenticationChallenge{
		Challenge:   challenge,
		ChallengeID: challengeID,
	}, nil
}

// ResolveUsername maps a credential id (base64url, as the browser
// reports it) to the username that owns it. Used by clients that cache
// a credential id locally and want to greet the user before login.
func (s *Service) ResolveUsername(ctx context.Context, credentialID string) (string, error) {
	if err := validation.ValidateCredentialID(credentialID); err != nil {
		return "", NewError("resolve username", fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}

	user, _, err := s.users.FindByCredentialID(ctx, credentialID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// FinishAuthentication completes an assertion ceremony. The credential
// id inside the response identifies the user; the username is always
// taken from the stored owner, never from client input.
//
// An unknown credential id fails without consuming the challenge, so a
// client that picked the wrong credential may retry against the same
// challenge id. Once the owner is known the challenge is consumed
// exactly once, then the assertion is verified, the stored signature
// counter is advanced and the last-use timestamp refreshed. A user
// handle in the response that does not match the owner fails
// verification inside the library.
func (s *Service) FinishAuthentication(ctx context.Context, challengeID string,
	response *protocol.ParsedCredentialAssertionData) (*Result, error) {

	if response == nil {
		return nil, NewError("finish authentication", ErrInvalidRequest)
	}
	if err := validation.ValidateChallengeID(challengeID); err != nil {
		return nil, NewError("finish authentication", fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}

	credentialID := base64url.Encode(response.RawID)
	user, stored, err := s.users.FindByCredentialID(ctx, credentialID)
	if err != nil {
		authentications.WithLabelValues("failure").Inc()
		return nil, err
	}

	challenge, err := s.challenges.ConsumeAuthentication(ctx, challengeID)
	if err != nil {
		authentications.WithLabelValues("failure").Inc()
		return nil, err
	}

	verdict, err := s.verifier.VerifyAuthentication(ctx, user, stored, challenge, response)
	if err != nil {
		authentications.WithLabelValues("failure").Inc()
		return nil, err
	}

	stored.SignCount = verdict.NewSignCount
	stored.LastUsedAt = time.Now().UTC()
	if err := s.users.PutUser(ctx, user); err != nil {
		authentications.WithLabelValues("failure").Inc()
		return nil, err
	}

	authentications.WithLabelValues("success").Inc()
	s.logger.Info("authentication verified",
		"username", user.Username,
		"credentialID", credentialID,
		"signCount", verdict.NewSignCount)

	return s.result(user.Username)
}
