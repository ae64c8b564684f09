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
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the session token lifetime when the config leaves
// it unset.
const DefaultTokenTTL = 24 * time.Hour

// JWTConfig configures the HS256 session token generator.
type JWTConfig struct {
	// SigningKey is the HMAC secret (required).
	SigningKey []byte
	// Issuer is the iss claim. Defaults to the relying party id.
	Issuer string
	// Audience is the aud claim. Defaults to the issuer.
	Audience string
	// TTL is the token lifetime. Defaults to DefaultTokenTTL.
	TTL time.Duration
}

// JWTGenerator mints HS256 session tokens on successful ceremonies.
type JWTGenerator struct {
	config *JWTConfig
}

// NewJWTGenerator creates a session token generator.
func NewJWTGenerator(config *JWTConfig) (*JWTGenerator, error) {
	if config == nil || len(config.SigningKey) == 0 {
		return nil, fmt.Errorf("jwt: signing key is required")
	}
	if config.TTL == 0 {
		config.TTL = DefaultTokenTTL
	}
	if config.Audience == "" {
		config.Audience = config.Issuer
	}
	return &JWTGenerator{config: config}, nil
}

// GenerateToken mints a token whose subject is the username.
func (g *JWTGenerator) GenerateToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  g.config.Issuer,
		"aud":  g.config.Audience,
		"sub":  username,
		"name": username,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  now.Add(g.config.TTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.config.SigningKey)
	if err != nil {
		return "", fmt.Errorf("jwt: signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies a token minted by this generator and returns
// its subject.
func (g *JWTGenerator) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return g.config.SigningKey, nil
	},
		jwt.WithIssuer(g.config.Issuer),
		jwt.WithAudience(g.config.Audience),
		jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("jwt: invalid token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("jwt: missing subject claim")
	}
	return sub, nil
}
