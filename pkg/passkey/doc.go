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

// Package passkey implements passwordless authentication ceremonies based
// on WebAuthn public-key credentials.
//
// The package is built around three pieces:
//
//   - Service orchestrates the registration and authentication ceremonies:
//     challenge issuance and single-use consumption, response verification,
//     and credential persistence with anti-replay counter enforcement.
//
//   - Repository and ChallengeStore keep all cross-request state behind a
//     storage.Backend, so ceremony handlers share no in-process mutable
//     state and scale horizontally with a shared store such as Redis.
//
//   - Verifier abstracts the cryptographic verification of attestation and
//     assertion responses. The production implementation delegates to
//     github.com/go-webauthn/webauthn; tests substitute a fake.
//
// Usage:
//
//	backend := memory.New()
//	svc, err := passkey.NewService(passkey.ServiceParams{
//	    Config: &passkey.Config{
//	        RPID:          "example.com",
//	        RPDisplayName: "Example Corp",
//	        RPOrigins:     []string{"https://example.com"},
//	    },
//	    Users:      passkey.NewRepository(backend),
//	    Challenges: passkey.NewChallengeStore(backend, 0),
//	})
//
// Authentication supports discoverable credentials: BeginAuthentication
// issues a challenge without a username, and FinishAuthentication resolves
// the account from the presented credential id.
package passkey
