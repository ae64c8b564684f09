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
	"crypto/rand"
	"time"

	"github.com/google/uuid"

	"github.com/jeremyhahn/go-passkey/pkg/encoding/base64url"
	"github.com/jeremyhahn/go-passkey/pkg/storage"
)

// DefaultChallengeTTL is how long an issued challenge stays consumable.
const DefaultChallengeTTL = 5 * time.Minute

// authChallengeEntropy is the number of random bytes behind an
// authentication challenge.
const authChallengeEntropy = 32

// Two independent key namespaces: registration challenges are keyed by the
// challenge value itself and bind a username; authentication challenges
// are keyed by an opaque server-generated id so a username is not needed
// until the credential arrives (discoverable flows).
const (
	registrationChallengePrefix   = "challenge:signup:"
	authenticationChallengePrefix = "challenge:auth:"
)

// ChallengeStore issues and consumes short-lived, single-use ceremony
// challenges. Expiry is enforced by the backend's key TTL, not by
// timestamp comparison, so clock skew between server instances cannot
// resurrect a dead challenge. Consumption uses the backend's atomic
// GetDelete, so concurrent finish calls racing on the same challenge
// observe at most one success.
type ChallengeStore struct {
	backend storage.Backend
	ttl     time.Duration
}

// NewChallengeStore creates a challenge store on the given backend.
// A non-positive ttl selects DefaultChallengeTTL.
func NewChallengeStore(backend storage.Backend, ttl time.Duration) *ChallengeStore {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	return &ChallengeStore{
		backend: backend,
		ttl:     ttl,
	}
}

// IssueRegistration records a registration challenge bound to a username.
// The challenge value comes from the credential verifier, which embeds the
// same value in the options returned to the client.
func (s *ChallengeStore) IssueRegistration(ctx context.Context, challenge, username string) error {
	if challenge == "" || username == "" {
		return WrapError("issue registration challenge", ErrInvalidRequest)
	}
	return s.backend.Set(ctx, registrationChallengePrefix+challenge, []byte(username), s.ttl)
}

// ConsumeRegistration atomically reads and invalidates a registration
// challenge, returning the username it was bound to. A missing, expired
// or already-consumed challenge fails with ErrChallengeExpired.
func (s *ChallengeStore) ConsumeRegistration(ctx context.Context, challenge string) (string, error) {
	username, err := s.backend.GetDelete(ctx, registrationChallengePrefix+challenge)
	if storage.IsNotFound(err) {
		return "", NewError("consume registration challenge", ErrChallengeExpired)
	}
	if err != nil {
		return "", WrapError("consume registration challenge", err)
	}
	return string(username), nil
}

// IssueAuthentication generates a fresh random challenge and an opaque
// challenge id, stores the challenge keyed by the id, and returns both.
// No username is bound; authentication resolves the user from the
// presented credential.
func (s *ChallengeStore) IssueAuthentication(ctx context.Context) (challenge, challengeID string, err error) {
	buf := make([]byte, authChallengeEntropy)
	if _, err := rand.Read(buf); err != nil {
		return "", "", WrapError("issue authentication challenge", err)
	}
	challenge = base64url.Encode(buf)
	challengeID = uuid.NewString()

	if err := s.backend.Set(ctx, authenticationChallengePrefix+challengeID, []byte(challenge), s.ttl); err != nil {
		return "", "", WrapError("issue authentication challenge", err)
	}
	return challenge, challengeID, nil
}

// ConsumeAuthentication atomically reads and invalidates an authentication
// challenge by its id, returning the challenge value.
func (s *ChallengeStore) ConsumeAuthentication(ctx context.Context, challengeID string) (string, error) {
	challenge, err := s.backend.GetDelete(ctx, authenticationChallengePrefix+challengeID)
	if storage.IsNotFound(err) {
		return "", NewError("consume authentication challenge", ErrChallengeExpired)
	}
	if err != nil {
		return "", WrapError("consume authentication challenge", err)
	}
	return string(challenge), nil
}

// TTL returns the configured challenge lifetime.
func (s *ChallengeStore) TTL() time.Duration {
	return s.ttl
}
