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

// Package memory provides an in-memory implementation of storage.Backend
// with per-key expiry. Expired entries are dropped lazily on access and
// swept by a background cleaner. Intended for tests and single-node
// development deployments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/jeremyhahn/go-passkey/pkg/storage"
)

// DefaultCleanInterval is how often the background cleaner sweeps expired keys.
const DefaultCleanInterval = 5 * time.Minute

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Storage is an in-memory implementation of storage.Backend backed by a
// sharded concurrent map.
type Storage struct {
	data   cmap.ConcurrentMap[string, entry]
	done   chan struct{}
	closed atomic.Bool
}

// New creates a new in-memory storage backend with the default clean interval.
func New() *Storage {
	return NewWithCleanInterval(DefaultCleanInterval)
}

// NewWithCleanInterval creates a new in-memory storage backend whose
// background cleaner runs at the given interval.
func NewWithCleanInterval(interval time.Duration) *Storage {
	s := &Storage{
		data: cmap.New[entry](),
		done: make(chan struct{}),
	}
	go s.clean(interval)
	return s
}

// Get retrieves the value for the given key.
// The returned byte slice is a copy and safe to modify.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}

	e, ok := s.data.Get(key)
	if !ok {
		return nil, storage.ErrNotFound
	}
	if e.expired(time.Now()) {
		s.data.Remove(key)
		return nil, storage.ErrNotFound
	}

	value := make([]byte, len(e.value))
	copy(value, e.value)
	return value, nil
}

// Set stores the value for the given key with an optional ttl.
func (s *Storage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}

	e := entry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > storage.NoExpiry {
		e.expiresAt = time.Now().Add(ttl)
	}

	s.data.Set(key, e)
	return nil
}

// GetDelete atomically retrieves and removes the value for the given key.
func (s *Storage) GetDelete(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}

	var value []byte
	var found bool
	now := time.Now()

	// RemoveCb holds the shard lock across the read and the delete, so
	// two racing consumers observe at most one success.
	s.data.RemoveCb(key, func(_ string, e entry, exists bool) bool {
		if exists && !e.expired(now) {
			value = e.value
			found = true
		}
		return true
	})

	if !found {
		return nil, storage.ErrNotFound
	}
	return value, nil
}

// Delete removes the key and its value.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return storage.ErrClosed
	}

	var existed bool
	s.data.RemoveCb(key, func(_ string, _ entry, exists bool) bool {
		existed = exists
		return true
	})

	if !existed {
		return storage.ErrNotFound
	}
	return nil
}

// Keys returns all live keys with the given prefix, sorted.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}

	now := time.Now()
	keys := make([]string, 0)
	for item := range s.data.IterBuffered() {
		if !strings.HasPrefix(item.Key, prefix) || item.Val.expired(now) {
			continue
		}
		keys = append(keys, item.Key)
	}

	sort.Strings(keys)
	return keys, nil
}

// Close stops the background cleaner and marks the backend closed.
func (s *Storage) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		close(s.done)
	}
	return nil
}

func (s *Storage) clean(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			for item := range s.data.IterBuffered() {
				if item.Val.expired(now) {
					s.data.Remove(item.Key)
				}
			}
		}
	}
}
