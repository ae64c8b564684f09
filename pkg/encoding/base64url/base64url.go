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

// Package base64url converts between raw binary identifiers and the URL-safe
// text form used for storage keys and wire payloads. Encoded values use the
// base64url alphabet with padding stripped, matching the encoding produced
// by authenticator clients.
package base64url

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEncoding is returned when a string is not valid unpadded base64url.
var ErrMalformedEncoding = errors.New("malformed base64url encoding")

var restoreAlphabet = strings.NewReplacer("-", "+", "_", "/")

// Encode returns the unpadded base64url encoding of data.
func Encode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode reverses Encode. It tolerates inputs that arrive in the standard
// base64 alphabet by restoring '+' and '/' before re-padding to a multiple
// of four. A length remainder of 1 cannot terminate a valid encoding and
// fails with ErrMalformedEncoding.
func Decode(s string) ([]byte, error) {
	restored := restoreAlphabet.Replace(s)

	switch len(restored) % 4 {
	case 0:
	case 2:
		restored += "=="
	case 3:
		restored += "="
	default:
		return nil, ErrMalformedEncoding
	}

	data, err := base64.StdEncoding.DecodeString(restored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	return data, nil
}
