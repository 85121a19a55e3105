package storage

import "context"

// BoundedStore is the small synchronous key-value backend. Implementations
// enforce a byte capacity and return ErrQuotaExceeded from Set when full.
// Keys exposes the stored key set for maintenance scans.
type BoundedStore interface {
	// Set stores value under key, overwriting any previous value.
	Set(key, value string) error

	// Get retrieves the value for key, or ErrNotFound.
	Get(key string) (string, error)

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Keys returns a snapshot of all stored keys.
	Keys() ([]string, error)
}

// UsageReporter is optionally implemented by bounded stores that can report
// their capacity precisely. The quota estimator falls back to a conservative
// fixed quota when the backend does not implement it.
type UsageReporter interface {
	Usage() (usedBytes, quotaBytes int64, err error)
}

// BlobStore is the larger asynchronous backend. Operations accept a context
// because they may suspend the caller; the store may be entirely unavailable
// in some environments, in which case the tier selector falls back to
// chunking on the bounded backend.
type BlobStore interface {
	// PutBlob stores an arbitrary-size value under key.
	PutBlob(ctx context.Context, key string, data []byte) error

	// GetBlob retrieves the value for key, or ErrNotFound.
	GetBlob(ctx context.Context, key string) ([]byte, error)

	// DeleteBlob deletes key. Deleting an absent key is not an error.
	DeleteBlob(ctx context.Context, key string) error
}
