package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var bucketBlobs = []byte("blobs")

// BoltBlobStore implements BlobStore on a bbolt database. It serves as the
// larger backend for payloads past the chunking threshold.
type BoltBlobStore struct {
	db *bbolt.DB
}

// OpenBoltBlobStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltBlobStore(dbPath string) (*BoltBlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("%w: create directory: %w", ErrStorageUnavailable, err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open bolt db: %w", ErrStorageUnavailable, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBlobs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: create bucket: %w", ErrStorageUnavailable, err)
	}

	return &BoltBlobStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltBlobStore) Close() error { return s.db.Close() }

// PutBlob stores an arbitrary-size value under key.
func (s *BoltBlobStore) PutBlob(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrBlobStore, err)
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBlobs).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("%w: put %q: %w", ErrBlobStore, key, err)
	}
	return nil
}

// GetBlob retrieves the value for key, or ErrNotFound.
func (s *BoltBlobStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBlobStore, err)
	}
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketBlobs).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get %q: %w", ErrBlobStore, key, err)
	}
	return data, nil
}

// DeleteBlob deletes key. Deleting an absent key is a no-op.
func (s *BoltBlobStore) DeleteBlob(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrBlobStore, err)
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketBlobs).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: delete %q: %w", ErrBlobStore, key, err)
	}
	return nil
}
