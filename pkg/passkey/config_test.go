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
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{
			name:    "missing RPID",
			config:  &Config{RPDisplayName: "Example", RPOrigins: []string{"https://example.com"}},
			wantErr: "RPID is required",
		},
		{
			name:    "missing display name",
			config:  &Config{RPID: "example.com", RPOrigins: []string{"https://example.com"}},
			wantErr: "RPDisplayName is required",
		},
		{
			name:    "missing origins",
			config:  &Config{RPID: "example.com", RPDisplayName: "Example"},
			wantErr: "at least one RPOrigin is required",
		},
		{
			name: "invalid user verification",
			config: &Config{
				RPID: "example.com", RPDisplayName: "Example",
				RPOrigins:        []string{"https://example.com"},
				UserVerification: "sometimes",
			},
			wantErr: "invalid user verification",
		},
		{
			name: "invalid attestation preference",
			config: &Config{
				RPID: "example.com", RPDisplayName: "Example",
				RPOrigins:             []string{"https://example.com"},
				AttestationPreference: "maybe",
			},
			wantErr: "invalid attestation preference",
		},
		{
			name: "invalid resident key requirement",
			config: &Config{
				RPID: "example.com", RPDisplayName: "Example",
				RPOrigins:              []string{"https://example.com"},
				ResidentKeyRequirement: "always",
			},
			wantErr: "invalid resident key requirement",
		},
		{
			name: "invalid authenticator attachment",
			config: &Config{
				RPID: "example.com", RPDisplayName: "Example",
				RPOrigins:               []string{"https://example.com"},
				AuthenticatorAttachment: "usb",
			},
			wantErr: "invalid authenticator attachment",
		},
		{
			name:   "valid minimal",
			config: validTestConfig(),
		},
		{
			name: "valid full",
			config: &Config{
				RPID: "example.com", RPDisplayName: "Example",
				RPOrigins:               []string{"https://example.com", "https://www.example.com"},
				UserVerification:        "required",
				AttestationPreference:   "direct",
				ResidentKeyRequirement:  "required",
				AuthenticatorAttachment: "cross-platform",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	config := validTestConfig()
	config.SetDefaults()

	assert.Equal(t, DefaultChallengeTTL, config.ChallengeTTL)
	assert.Equal(t, "preferred", config.UserVerification)
	assert.Equal(t, "none", config.AttestationPreference)
	assert.Equal(t, "preferred", config.ResidentKeyRequirement)
	assert.Equal(t, "platform", config.AuthenticatorAttachment)
}

func TestConfig_SetDefaults_PreservesExplicit(t *testing.T) {
	config := validTestConfig()
	config.ChallengeTTL = time.Minute
	config.UserVerification = "required"
	config.SetDefaults()

	assert.Equal(t, time.Minute, config.ChallengeTTL)
	assert.Equal(t, "required", config.UserVerification)
}

func TestConfig_ToWebAuthnConfig(t *testing.T) {
	config := &Config{
		RPID:                    "example.com",
		RPDisplayName:           "Example",
		RPOrigins:               []string{"https://example.com"},
		UserVerification:        "required",
		AttestationPreference:   "direct",
		ResidentKeyRequirement:  "required",
		AuthenticatorAttachment: "cross-platform",
		Debug:                   true,
	}

	waConfig := config.ToWebAuthnConfig()
	assert.Equal(t, "example.com", waConfig.RPID)
	assert.Equal(t, "Example", waConfig.RPDisplayName)
	assert.Equal(t, []string{"https://example.com"}, waConfig.RPOrigins)
	assert.True(t, waConfig.Debug)
	assert.Equal(t, protocol.PreferDirectAttestation, waConfig.AttestationPreference)
	assert.Equal(t, protocol.VerificationRequired, waConfig.AuthenticatorSelection.UserVerification)
	assert.Equal(t, protocol.ResidentKeyRequirementRequired, waConfig.AuthenticatorSelection.ResidentKey)
	assert.Equal(t, protocol.CrossPlatform, waConfig.AuthenticatorSelection.AuthenticatorAttachment)
}

func TestConfig_ToWebAuthnConfig_Defaults(t *testing.T) {
	config := validTestConfig()
	config.SetDefaults()

	waConfig := config.ToWebAuthnConfig()
	assert.Equal(t, protocol.PreferNoAttestation, waConfig.AttestationPreference)
	assert.Equal(t, protocol.VerificationPreferred, waConfig.AuthenticatorSelection.UserVerification)
	assert.Equal(t, protocol.ResidentKeyRequirementPreferred, waConfig.AuthenticatorSelection.ResidentKey)
	assert.Equal(t, protocol.Platform, waConfig.AuthenticatorSelection.AuthenticatorAttachment)
}
