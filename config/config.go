// Copyright (c) 2026 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config holds the tunable limits of the tiered store and loads them
// from the environment or a YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config carries every tunable of the storage subsystem. Zero values are
// replaced by defaults on Load.
type Config struct {
	// DataDir is the root directory for the file-backed bounded store and
	// the bolt database.
	DataDir string `env:"TIERSTORE_DATA_DIR" yaml:"data_dir"`

	// QuotaBytes is the bounded backend capacity.
	QuotaBytes int64 `env:"TIERSTORE_QUOTA_BYTES" yaml:"quota_bytes"`

	// ChunkSize is the chunk ceiling for chunked storage.
	ChunkSize int `env:"TIERSTORE_CHUNK_SIZE" yaml:"chunk_size"`

	// LargeFileThreshold routes encoded records above this size to the
	// blob backend.
	LargeFileThreshold int `env:"TIERSTORE_LARGE_FILE_THRESHOLD" yaml:"large_file_threshold"`

	// EntryLimit is the single-entry ceiling of the bounded backend.
	EntryLimit int `env:"TIERSTORE_ENTRY_LIMIT" yaml:"entry_limit"`

	// DisableBlobStore runs without the larger backend, forcing chunked
	// fallback for oversized records.
	DisableBlobStore bool `env:"TIERSTORE_DISABLE_BLOB_STORE" yaml:"disable_blob_store"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"TIERSTORE_LOG_LEVEL" yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir:            home + "/.tierstore",
		QuotaBytes:         5 << 20,
		ChunkSize:          64 * 1024,
		LargeFileThreshold: 2 << 20,
		EntryLimit:         512 * 1024,
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults overridden by environment
// variables, then validates it.
func Load() (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile builds the configuration from defaults overridden by a YAML file,
// then by environment variables, then validates it.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
