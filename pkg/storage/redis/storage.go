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

// Package redis provides a Redis-backed implementation of storage.Backend.
// Expiry maps directly onto Redis key TTLs and single-use consumption onto
// GETDEL, so the atomicity guarantees hold across server instances.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jeremyhahn/go-passkey/pkg/storage"
)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// Storage is a Redis-backed implementation of storage.Backend.
type Storage struct {
	client *redis.Client
}

// New creates a Redis storage backend from the given configuration.
func New(cfg Config) *Storage {
	return NewFromClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))
}

// NewFromClient wraps an existing Redis client. The caller retains
// ownership of the client's lifecycle until Close is called.
func NewFromClient(client *redis.Client) *Storage {
	return &Storage{client: client}
}

// Get retrieves the value for the given key.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	return value, err
}

// Set stores the value for the given key with an optional ttl.
func (s *Storage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// GetDelete atomically retrieves and removes the value for the given key.
func (s *Storage) GetDelete(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	return value, err
}

// Delete removes the key and its value.
func (s *Storage) Delete(ctx context.Context, key string) error {
	deleted, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Keys returns all keys with the given prefix using incremental SCAN
// rather than the blocking KEYS command.
func (s *Storage) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)
	iter := s.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// Close closes the underlying Redis client.
func (s *Storage) Close() error {
	return s.client.Close()
}
