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

// Package pogreb provides a persistent, embedded implementation of
// storage.Backend on top of akrylysov/pogreb. Pogreb has no native key
// expiry, so every value is wrapped in an envelope carrying its expiry
// timestamp; expired entries are dropped on read and swept periodically.
package pogreb

import (
	"context"
	"encoding/binary"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/akrylysov/pogreb"

	"github.com/jeremyhahn/go-passkey/pkg/storage"
)

// DefaultSweepInterval is how often the background sweeper scans for
// expired entries.
const DefaultSweepInterval = 10 * time.Minute

// envelopeHeader is the size of the expiry timestamp prefix.
const envelopeHeader = 8

// Storage is a pogreb-backed implementation of storage.Backend.
type Storage struct {
	// mu serializes mutating operations so GetDelete behaves as a single
	// atomic read-and-delete. Pogreb itself only guarantees atomicity of
	// individual Put/Get/Delete calls.
	mu     sync.Mutex
	db     *pogreb.DB
	done   chan struct{}
	closed bool
}

// New opens (creating if necessary) a pogreb database at path.
func New(path string) (*Storage, error) {
	return NewWithSweepInterval(path, DefaultSweepInterval)
}

// NewWithSweepInterval opens a pogreb database whose expiry sweeper runs
// at the given interval.
func NewWithSweepInterval(path string, interval time.Duration) (*Storage, error) {
	db, err := pogreb.Open(path, nil)
	if err != nil {
		return nil, err
	}

	s := &Storage{
		db:   db,
		done: make(chan struct{}),
	}
	go s.sweep(interval)
	return s, nil
}

func seal(value []byte, ttl time.Duration) []byte {
	sealed := make([]byte, envelopeHeader+len(value))
	if ttl > storage.NoExpiry {
		binary.BigEndian.PutUint64(sealed, uint64(time.Now().Add(ttl).UnixNano()))
	}
	copy(sealed[envelopeHeader:], value)
	return sealed
}

// unseal splits an envelope into its value and liveness. Envelopes from
// a corrupt or foreign database are treated as expired.
func unseal(sealed []byte, now time.Time) ([]byte, bool) {
	if len(sealed) < envelopeHeader {
		return nil, false
	}
	expiresAt := binary.BigEndian.Uint64(sealed)
	if expiresAt != 0 && now.UnixNano() > int64(expiresAt) {
		return nil, false
	}
	return sealed[envelopeHeader:], true
}

// Get retrieves the value for the given key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(key)
}

func (s *Storage) getLocked(key string) ([]byte, error) {
	if s.closed {
		return nil, storage.ErrClosed
	}

	sealed, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if sealed == nil {
		return nil, storage.ErrNotFound
	}

	value, live := unseal(sealed, time.Now())
	if !live {
		_ = s.db.Delete([]byte(key))
		return nil, storage.ErrNotFound
	}
	return value, nil
}

// Set stores the value for the given key with an optional ttl.
func (s *Storage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}
	return s.db.Put([]byte(key), seal(value, ttl))
}

// GetDelete atomically retrieves and removes the value for the given key.
func (s *Storage) GetDelete(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := s.getLocked(key)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete([]byte(key)); err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes the key and its value.
func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storage.ErrClosed
	}

	has, err := s.db.Has([]byte(key))
	if err != nil {
		return err
	}
	if !has {
		return storage.ErrNotFound
	}
	return s.db.Delete([]byte(key))
}

// Keys returns all live keys with the given prefix, sorted.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, storage.ErrClosed
	}

	now := time.Now()
	keys := make([]string, 0)
	it := s.db.Items()
	for {
		key, sealed, err := it.Next()
		if err == pogreb.ErrIterationDone {
			break
		}
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(string(key), prefix) {
			continue
		}
		if _, live := unseal(sealed, now); !live {
			continue
		}
		keys = append(keys, string(key))
	}

	sort.Strings(keys)
	return keys, nil
}

// Close stops the sweeper and closes the database.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return s.db.Close()
}

func (s *Storage) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Storage) sweepOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	now := time.Now()
	var expired [][]byte
	it := s.db.Items()
	for {
		key, sealed, err := it.Next()
		if err != nil {
			break
		}
		if _, live := unseal(sealed, now); !live {
			k := make([]byte, len(key))
			copy(k, key)
			expired = append(expired, k)
		}
	}
	for _, key := range expired {
		_ = s.db.Delete(key)
	}
}
