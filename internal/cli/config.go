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

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-passkey/pkg/passkey"
	"github.com/jeremyhahn/go-passkey/pkg/storage"
	"github.com/jeremyhahn/go-passkey/pkg/storage/memory"
	"github.com/jeremyhahn/go-passkey/pkg/storage/pogreb"
	"github.com/jeremyhahn/go-passkey/pkg/storage/redis"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the server configuration file
	ConfigFile string

	// Backend overrides the storage backend from the config file
	Backend string

	// DataDir overrides the pogreb data directory from the config file
	DataDir string

	// OutputFormat controls output formatting (json, text, table)
	OutputFormat string

	// Verbose enables verbose logging
	Verbose bool
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: "text",
		Verbose:      false,
	}
}

// loadSettings reads the server configuration through viper so the CLI
// sees the same storage settings the server runs with. Flags beat the
// config file, which beats PASSKEY_* environment variables.
func loadSettings(cfg *Config) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.path", "/var/lib/passkey")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.db", 0)

	v.SetEnvPrefix("PASSKEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfg.ConfigFile != "" {
		v.SetConfigFile(cfg.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/passkey")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfg.ConfigFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		printVerbose("Using config file: %s", v.ConfigFileUsed())
	}

	if cfg.Backend != "" {
		v.Set("storage.backend", cfg.Backend)
	}
	if cfg.DataDir != "" {
		v.Set("storage.path", cfg.DataDir)
	}

	return v, nil
}

// openRepository opens the configured storage backend and wraps it in a
// user repository. The caller owns the returned backend and must Close it.
func openRepository(cfg *Config) (*passkey.Repository, storage.Backend, error) {
	v, err := loadSettings(cfg)
	if err != nil {
		return nil, nil, err
	}

	name := v.GetString("storage.backend")
	printVerbose("Using storage backend: %s", name)

	var backend storage.Backend
	switch name {
	case "memory":
		backend = memory.New()
	case "pogreb":
		backend, err = pogreb.New(v.GetString("storage.path"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open pogreb store: %w", err)
		}
	case "redis":
		backend = redis.New(redis.Config{
			Addr:     v.GetString("storage.redis.addr"),
			Password: v.GetString("storage.redis.password"),
			DB:       v.GetInt("storage.redis.db"),
		})
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", name)
	}

	return passkey.NewRepository(backend), backend, nil
}
