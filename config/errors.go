// Copyright (c) 2026 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidQuota indicates the quota is not positive.
	ErrInvalidQuota = errors.New("config: quota must be positive")

	// ErrInvalidChunkSize indicates the chunk size is not positive or
	// exceeds the entry limit.
	ErrInvalidChunkSize = errors.New("config: chunk size must be positive and at most the entry limit")

	// ErrInvalidThreshold indicates the large-file threshold does not
	// exceed the entry limit.
	ErrInvalidThreshold = errors.New("config: large-file threshold must exceed the entry limit")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")
)
