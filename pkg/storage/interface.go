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

// Package storage provides an abstraction layer for key-value storage
// backends with per-key expiry. The passkey ceremony engine keeps all
// cross-request state (user records, pending challenges) behind this
// interface so deployments can choose between in-memory, embedded and
// Redis-backed persistence.
package storage

import (
	"context"
	"time"
)

// NoExpiry disables expiry for a key when passed as the ttl to Set.
const NoExpiry time.Duration = 0

// Backend defines the interface for storage backends.
// All implementations must be safe for concurrent use.
type Backend interface {
	// Get retrieves the value for the given key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores the value for the given key. A ttl greater than zero
	// causes the key to expire autonomously after that duration; NoExpiry
	// keeps it until deleted. Existing keys are overwritten.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// GetDelete atomically retrieves and removes the value for the given
	// key. Two concurrent callers racing on the same key observe at most
	// one success; the loser receives ErrNotFound. This is the primitive
	// behind single-use challenge consumption.
	GetDelete(ctx context.Context, key string) ([]byte, error)

	// Delete removes the key and its value from storage.
	// Returns ErrNotFound if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Keys returns all live keys with the given prefix.
	// If prefix is empty, all keys are returned.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the backend.
	Close() error
}
