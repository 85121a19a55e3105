package storage

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a BoundedStore persisted on the local filesystem, one file per
// key. Keys are path-escaped to form filenames, so Keys can recover the
// original key set without an index. Usage is accounted as key length plus
// value length, matching MemStore.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
	used    int64
	quota   int64
}

// NewFileStore opens or creates a file-backed bounded store rooted at
// baseDir, scanning existing entries to establish current usage.
// A non-positive quota gets DefaultQuota.
func NewFileStore(baseDir string, quota int64) (*FileStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: empty base directory", ErrStorageUnavailable)
	}
	if quota <= 0 {
		quota = DefaultQuota
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	fs := &FileStore{baseDir: baseDir, quota: quota}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue // skip foreign files
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		fs.used += int64(len(key)) + info.Size()
	}
	return fs, nil
}

func (fs *FileStore) filePath(key string) string {
	return filepath.Join(fs.baseDir, url.PathEscape(key))
}

// Set stores value under key, or returns ErrQuotaExceeded if the entry would
// push usage past the capacity.
func (fs *FileStore) Set(key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	entry := int64(len(key) + len(value))
	used := fs.used
	if info, err := os.Stat(fs.filePath(key)); err == nil {
		used -= int64(len(key)) + info.Size()
	}
	if used+entry > fs.quota {
		return fmt.Errorf("%w: need %d bytes, %d of %d used",
			ErrQuotaExceeded, entry, used, fs.quota)
	}

	if err := os.WriteFile(fs.filePath(key), []byte(value), 0600); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	fs.used = used + entry
	return nil
}

// Get retrieves the value for key, or ErrNotFound.
func (fs *FileStore) Get(key string) (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.filePath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return string(data), nil
}

// Remove deletes key. Absent keys are a no-op.
func (fs *FileStore) Remove(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	path := fs.filePath(key)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	fs.used -= int64(len(key)) + info.Size()
	return nil
}

// Keys returns all stored keys by scanning the base directory.
func (fs *FileStore) Keys() ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		key, err := url.PathUnescape(entry.Name())
		if err != nil {
			continue // skip foreign files
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Usage reports used and total capacity in bytes.
func (fs *FileStore) Usage() (int64, int64, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.used, fs.quota, nil
}
