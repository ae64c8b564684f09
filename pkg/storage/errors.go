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

package storage

import "errors"

var (
	// ErrNotFound is returned when a key does not exist or has expired.
	ErrNotFound = errors.New("storage: key not found")

	// ErrClosed is returned when an operation is attempted on a closed backend.
	ErrClosed = errors.New("storage: backend is closed")
)

// IsNotFound returns true if the error indicates a missing or expired key.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
