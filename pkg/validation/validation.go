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

// Package validation provides centralized input validation for the
// ceremony APIs. Usernames, credential IDs and challenge IDs all arrive
// from unauthenticated clients and end up in storage keys and logs, so
// every entry point funnels them through these checks.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	// MaxUsernameLength caps usernames. WebAuthn user names are
	// arbitrary strings; 255 keeps storage keys bounded.
	MaxUsernameLength = 255

	// MaxCredentialIDLength caps base64url credential identifiers.
	// Authenticators may emit up to 1023 raw bytes, which is 1364
	// characters encoded.
	MaxCredentialIDLength = 1364
)

var (
	// credentialIDPattern matches unpadded base64url text
	credentialIDPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)
)

// ValidateUsername validates a username supplied by a client.
// Usernames become storage keys, so null bytes, control characters and
// oversized values are rejected before they reach the backend.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if strings.Contains(username, "\x00") {
		return fmt.Errorf("username contains null byte")
	}

	if len(username) > MaxUsernameLength {
		return fmt.Errorf("username too long (max %d bytes)", MaxUsernameLength)
	}

	if !utf8.ValidString(username) {
		return fmt.Errorf("username is not valid UTF-8")
	}

	for _, r := range username {
		if r < 32 || r == 127 {
			return fmt.Errorf("username contains control characters")
		}
	}

	return nil
}

// ValidateCredentialID validates a base64url-encoded credential ID.
func ValidateCredentialID(credentialID string) error {
	if credentialID == "" {
		return fmt.Errorf("credential ID cannot be empty")
	}

	if len(credentialID) > MaxCredentialIDLength {
		return fmt.Errorf("credential ID too long (max %d characters)", MaxCredentialIDLength)
	}

	if !credentialIDPattern.MatchString(credentialID) {
		return fmt.Errorf("credential ID is not base64url (allowed: A-Z, a-z, 0-9, -, _)")
	}

	return nil
}

// ValidateChallengeID validates an authentication challenge handle.
// Challenge IDs are server-issued UUIDs; anything else never came from
// this server.
func ValidateChallengeID(challengeID string) error {
	if challengeID == "" {
		return fmt.Errorf("challenge ID cannot be empty")
	}

	if _, err := uuid.Parse(challengeID); err != nil {
		return fmt.Errorf("challenge ID is not a valid UUID")
	}

	return nil
}

// SanitizeForLog sanitizes a string for safe logging (prevents log injection).
func SanitizeForLog(s string) string {
	// Remove control characters and null bytes
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)

	// Limit length to prevent log flooding
	if len(s) > 1000 {
		s = s[:1000] + "...[truncated]"
	}

	return s
}
