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

package http

import "encoding/json"

// ApiResponse is the envelope every endpoint responds with.
type ApiResponse struct {
	// Success indicates whether the operation completed.
	Success bool `json:"success"`

	// Data carries the operation result on success.
	Data any `json:"data,omitempty"`

	// Error is a human-readable message on failure.
	Error string `json:"error,omitempty"`
}

// RegisterOptionsRequest is the request body for starting registration.
type RegisterOptionsRequest struct {
	// Username is the account to register a credential for (required).
	Username string `json:"username"`
}

// RegisterVerifyRequest is the request body for completing registration.
type RegisterVerifyRequest struct {
	// Username is the account the ceremony was started for (required).
	Username string `json:"username"`

	// Credential is the attestation response produced by the browser's
	// navigator.credentials.create call.
	Credential json.RawMessage `json:"credential"`
}

// LoginVerifyRequest is the request body for completing authentication.
type LoginVerifyRequest struct {
	// ChallengeID is the opaque id returned by the login-challenge
	// endpoint (required).
	ChallengeID string `json:"challengeId"`

	// Credential is the assertion response produced by the browser's
	// navigator.credentials.get call.
	Credential json.RawMessage `json:"credential"`
}

// UsernameRequest is the request body for resolving a credential id.
type UsernameRequest struct {
	// CredentialID is the base64url credential id as the browser reports
	// it (required).
	CredentialID string `json:"credentialId"`
}

// UsernameResponse is the data payload for a resolved credential id.
type UsernameResponse struct {
	Username string `json:"username"`
}

// Generic failure messages. Ceremony failures share one message so a
// caller cannot distinguish an expired challenge from a bad signature.
const (
	msgInvalidRequest     = "invalid request"
	msgVerificationFailed = "verification failed"
	msgUnknownCredential  = "unknown credential"
	msgInternalError      = "internal server error"
)
