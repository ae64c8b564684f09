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

package base64url

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name:  "empty",
			input: nil,
			want:  "",
		},
		{
			name:  "no padding needed",
			input: []byte("abc"),
			want:  "YWJj",
		},
		{
			name:  "one padding char stripped",
			input: []byte("ab"),
			want:  "YWI",
		},
		{
			name:  "two padding chars stripped",
			input: []byte("a"),
			want:  "YQ",
		},
		{
			name:  "url-safe alphabet",
			input: []byte{0xfb, 0xff, 0xbf},
			want:  "-_-_",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.input))
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{
			name:  "empty",
			input: "",
			want:  []byte{},
		},
		{
			name:  "unpadded url-safe",
			input: "YWI",
			want:  []byte("ab"),
		},
		{
			name:  "url-safe characters",
			input: "-_-_",
			want:  []byte{0xfb, 0xff, 0xbf},
		},
		{
			name:  "standard alphabet accepted",
			input: "+/+/",
			want:  []byte{0xfb, 0xff, 0xbf},
		},
		{
			name:    "remainder of one is invalid",
			input:   "YWJjZ",
			wantErr: true,
		},
		{
			name:    "invalid characters",
			input:   "not base64!",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedEncoding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	// decode(encode(b)) == b for arbitrary byte sequences, across every
	// padding remainder.
	for size := 0; size < 64; size++ {
		buf := make([]byte, size)
		_, err := rand.Read(buf)
		require.NoError(t, err)

		decoded, err := Decode(Encode(buf))
		require.NoError(t, err)
		assert.Equal(t, buf, decoded)
	}
}

func TestRoundTripText(t *testing.T) {
	// encode(decode(t)) == t for validly encoded inputs.
	for _, s := range []string{"", "YQ", "YWI", "YWJj", "YWJjZA", "-_-_"} {
		decoded, err := Decode(s)
		require.NoError(t, err)
		assert.Equal(t, s, Encode(decoded))
	}
}
