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
	"github.com/jeremyhahn/go-passkey/pkg/logging"
	"github.com/jeremyhahn/go-passkey/pkg/storage"
)

// TokenGenerator mints a session token for a user who completed a
// ceremony. Implementations decide the token format; see JWTGenerator.
type TokenGenerator interface {
	GenerateToken(username string) (string, error)
}

// Result is returned by both Finish operations. Token is present only
// when a TokenGenerator is configured.
type Result struct {
	Verified bool   `json:"verified"`
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

// AuthenticationChallenge is the material handed to a client beginning
// a username-less login. The client signs Challenge and returns
// ChallengeID alongside the assertion so the server can look the
// challenge back up.
type AuthenticationChallenge struct {
	Challenge   string `json:"challenge"`
	ChallengeID string `json:"challengeId"`
}

// ServiceParams holds the dependencies for a passkey Service.
type ServiceParams struct {
	// Config holds the relying party settings. Required.
	Config *Config

	// Backend stores users, credentials and pending challenges.
	// Required.
	Backend storage.Backend

	// Verifier performs attestation and assertion verification.
	// Defaults to the go-webauthn implementation built from Config.
	Verifier Verifier

	// Tokens mints session tokens on successful ceremonies. Optional;
	// when nil, results carry no token.
	Tokens TokenGenerator

	// Logger for ceremony events. Defaults to logging.DefaultLogger.
	Logger *logging.Logger
}

// Service orchestrates passkey registration and authentication. It owns
// challenge bookkeeping and credential persistence; cryptographic
// verification is delegated to the Verifier.
type Service struct {
	config     *Config
	verifier   Verifier
	users      *Repository
	challenges *ChallengeStore
	tokens     TokenGenerator
	logger     *logging.Logger
}

// NewService creates a passkey service from the given params.
func NewService(params *ServiceParams) (*Service, error) {
	if params == nil || params.Config == nil {
		return nil, NewError("new service", ErrNotConfigured)
	}
	if params.Backend == nil {
		return nil, NewError("new service", ErrNotConfigured)
	}

	params.Config.SetDefaults()
	if err := params.Config.Validate(); err != nil {
		return nil, err
	}

	verifier := params.Verifier
	if verifier == nil {
		var err error
		verifier, err = NewWebAuthnVerifier(params.Config)
		if err != nil {
			return nil, err
		}
	}

	logger := params.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	return &Service{
		config:     params.Config,
		verifier:   verifier,
		users:      NewRepository(params.Backend),
		challenges: NewChallengeStore(params.Backend, params.Config.ChallengeTTL),
		tokens:     params.Tokens,
		logger:     logger,
	}, nil
}

// Users exposes the credential repository for administrative tooling.
func (s *Service) Users() *Repository {
	return s.users
}

// Config returns the relying party configuration the service runs with.
func (s *Service) Config() *Config {
	return s.config
}

func (s *Service) result(username string) (*Result, error) {
	result := &Result{Verified: true, Username: username}
	if s.tokens != nil {
		token, err := s.tokens.GenerateToken(username)
		if err != nil {
			return nil, WrapError("generate token", err)
		}
		result.Token = token
	}
	return result, nil
}
