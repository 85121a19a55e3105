package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Storage method names reported in StorageStats.
const (
	MethodBounded = "bounded"
	MethodBlob    = "blob"
	MethodChunked = "chunked"
)

// keyPrefix namespaces every record this subsystem writes into the bounded
// backend, so maintenance scans can enumerate them without touching foreign
// keys.
const keyPrefix = "tierstore:"

const (
	// DefaultLargeFileThreshold routes encoded records above this size to
	// the blob backend (2 MB).
	DefaultLargeFileThreshold = 2 << 20

	// DefaultEntryLimit is the practical single-entry ceiling for the
	// bounded backend; larger records are chunked (512 KB).
	DefaultEntryLimit = 512 * 1024
)

// SetOptions modifies a single Set call.
type SetOptions struct {
	// MimeType is recorded in the envelope; empty gets DefaultMimeType.
	MimeType string

	// ForceBlobStore routes the write to the blob backend regardless of
	// size, with no chunked fallback on failure.
	ForceBlobStore bool
}

// StorageStats describes where and how a record was stored, so callers can
// report storage health.
type StorageStats struct {
	StorageMethod string
	OriginalSize  int64
	StoredSize    int64
	Compressed    bool
	Chunks        int
}

// TieredStore routes records across the bounded backend, the blob backend,
// and chunked storage on the bounded backend, by payload size and
// availability. Operations on the same key are not internally serialized;
// callers needing read-modify-write semantics must serialize at a higher
// layer.
type TieredStore struct {
	bounded BoundedStore
	blob    BlobStore
	chunked *ChunkedStore
	quota   *Estimator
	logger  *slog.Logger

	largeFileThreshold int
	entryLimit         int
	chunkSize          int
	quotaFallback      int64
}

// Option configures a TieredStore.
type Option func(*TieredStore)

// WithBlobStore attaches the larger blob backend. Without it, oversized
// records are chunked onto the bounded backend.
func WithBlobStore(blob BlobStore) Option {
	return func(t *TieredStore) { t.blob = blob }
}

// WithLogger sets the logger used for best-effort cleanup reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(t *TieredStore) { t.logger = logger }
}

// WithChunkSize sets the chunk ceiling for chunked storage.
func WithChunkSize(size int) Option {
	return func(t *TieredStore) {
		if size > 0 {
			t.chunkSize = size
		}
	}
}

// WithLargeFileThreshold sets the encoded size above which records go to the
// blob backend.
func WithLargeFileThreshold(size int) Option {
	return func(t *TieredStore) {
		if size > 0 {
			t.largeFileThreshold = size
		}
	}
}

// WithEntryLimit sets the single-entry ceiling of the bounded backend.
func WithEntryLimit(size int) Option {
	return func(t *TieredStore) {
		if size > 0 {
			t.entryLimit = size
		}
	}
}

// WithQuotaFallback sets the conservative quota assumed when the bounded
// backend cannot report usage.
func WithQuotaFallback(quota int64) Option {
	return func(t *TieredStore) {
		if quota > 0 {
			t.quotaFallback = quota
		}
	}
}

// New creates a TieredStore over the given bounded backend.
func New(bounded BoundedStore, opts ...Option) *TieredStore {
	t := &TieredStore{
		bounded:            bounded,
		logger:             slog.Default(),
		largeFileThreshold: DefaultLargeFileThreshold,
		entryLimit:         DefaultEntryLimit,
		chunkSize:          DefaultChunkSize,
		quotaFallback:      DefaultQuota,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.chunked = NewChunkedStore(bounded, t.chunkSize, t.logger)
	t.quota = NewEstimator(bounded, t.quotaFallback)
	return t
}

func storageKey(key string) string { return keyPrefix + key }

// Set seals value into an envelope and writes it to the tier chosen by size,
// availability, and opts. Selection is deterministic: forced or oversized
// records go to the blob backend (falling back to chunked storage when the
// blob backend fails and the caller did not force it); records past the
// bounded entry limit are chunked; everything else is written directly.
func (t *TieredStore) Set(ctx context.Context, key string, value []byte, opts *SetOptions) (*StorageStats, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	var o SetOptions
	if opts != nil {
		o = *opts
	}

	env, err := SealEnvelope(value, o.MimeType)
	if err != nil {
		return nil, err
	}
	record, err := env.Marshal()
	if err != nil {
		return nil, err
	}

	sk := storageKey(key)
	stats := &StorageStats{
		OriginalSize: env.OriginalSize,
		StoredSize:   int64(len(record)),
		Compressed:   env.Format == FormatCompressed,
	}

	if o.ForceBlobStore || len(record) > t.largeFileThreshold {
		err := t.putBlob(ctx, sk, record)
		if err == nil {
			stats.StorageMethod = MethodBlob
			t.clearStaleCopies(ctx, sk, MethodBlob)
			return stats, nil
		}
		if o.ForceBlobStore {
			return nil, err
		}
		t.logger.Warn("blob backend write failed, falling back to chunked storage",
			"key", key, "error", err)
		return t.setChunked(ctx, sk, record, env, stats)
	}

	if len(record) > t.entryLimit {
		return t.setChunked(ctx, sk, record, env, stats)
	}

	// Advisory early exit; the backend's own capacity failure stays the
	// authoritative signal.
	required := int64(len(sk) + len(record))
	if !t.quota.HasSpace(required) {
		return nil, fmt.Errorf("%w: %d bytes past quota headroom", ErrQuotaExceeded, required)
	}
	if err := t.bounded.Set(sk, string(record)); err != nil {
		return nil, err
	}
	stats.StorageMethod = MethodBounded
	t.clearStaleCopies(ctx, sk, MethodBounded)
	return stats, nil
}

func (t *TieredStore) putBlob(ctx context.Context, sk string, record []byte) error {
	if t.blob == nil {
		return fmt.Errorf("%w: no blob backend configured", ErrStorageUnavailable)
	}
	return t.blob.PutBlob(ctx, sk, record)
}

func (t *TieredStore) setChunked(ctx context.Context, sk string, record []byte, env *Envelope, stats *StorageStats) (*StorageStats, error) {
	if err := t.chunked.Write(sk, string(record), env.OriginalSize); err != nil {
		return nil, err
	}
	stats.StorageMethod = MethodChunked
	stats.Chunks = (len(record) + t.chunked.chunkSize - 1) / t.chunked.chunkSize
	t.clearStaleCopies(ctx, sk, MethodChunked)
	return stats, nil
}

// clearStaleCopies best-effort removes copies of sk from the tiers other
// than the one just written, so an overwrite cannot be shadowed by an older
// record in a different tier.
func (t *TieredStore) clearStaleCopies(ctx context.Context, sk string, wroteTo string) {
	if wroteTo != MethodBounded {
		if err := t.bounded.Remove(sk); err != nil {
			t.logger.Warn("stale bounded copy removal failed", "key", sk, "error", err)
		}
	}
	if wroteTo != MethodChunked {
		if err := t.chunked.Remove(sk); err != nil {
			t.logger.Warn("stale chunked copy removal failed", "key", sk, "error", err)
		}
	}
	if wroteTo != MethodBlob && t.blob != nil {
		if err := t.blob.DeleteBlob(ctx, sk); err != nil && !errors.Is(err, ErrNotFound) {
			t.logger.Warn("stale blob copy removal failed", "key", sk, "error", err)
		}
	}
}

// Get reads the record for key, trying the bounded tier, then chunked
// storage, then the blob backend. A missing key returns (nil, nil). Corrupt
// records are removed and reported as absent; use GetStrict to surface
// ErrCorruption instead.
func (t *TieredStore) Get(ctx context.Context, key string) ([]byte, error) {
	return t.get(ctx, key, false)
}

// GetStrict is Get with corruption surfaced to the caller. The offending
// record is still removed.
func (t *TieredStore) GetStrict(ctx context.Context, key string) ([]byte, error) {
	return t.get(ctx, key, true)
}

func (t *TieredStore) get(ctx context.Context, key string, strict bool) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	sk := storageKey(key)

	// Bounded direct.
	raw, err := t.bounded.Get(sk)
	if err == nil {
		data, derr := openRecord([]byte(raw))
		if derr == nil {
			return data, nil
		}
		if rmErr := t.bounded.Remove(sk); rmErr != nil {
			t.logger.Warn("corrupt record removal failed", "key", sk, "error", rmErr)
		}
		return t.corruptionResult(key, derr, strict)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Chunked.
	record, found, err := t.chunked.Read(sk)
	if err != nil {
		if errors.Is(err, ErrCorruption) {
			return t.corruptionResult(key, err, strict)
		}
		return nil, err
	}
	if found {
		data, derr := openRecord([]byte(record))
		if derr == nil {
			return data, nil
		}
		if rmErr := t.chunked.Remove(sk); rmErr != nil {
			t.logger.Warn("corrupt chunk set removal failed", "key", sk, "error", rmErr)
		}
		return t.corruptionResult(key, derr, strict)
	}

	// Blob backend.
	if t.blob == nil {
		return nil, nil
	}
	blob, err := t.blob.GetBlob(ctx, sk)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	data, derr := openRecord(blob)
	if derr == nil {
		return data, nil
	}
	if rmErr := t.blob.DeleteBlob(ctx, sk); rmErr != nil {
		t.logger.Warn("corrupt blob removal failed", "key", sk, "error", rmErr)
	}
	return t.corruptionResult(key, derr, strict)
}

func (t *TieredStore) corruptionResult(key string, cause error, strict bool) ([]byte, error) {
	if strict {
		return nil, cause
	}
	t.logger.Warn("corrupt record removed", "key", key, "error", cause)
	return nil, nil
}

// openRecord parses a stored record and returns the original bytes.
func openRecord(record []byte) ([]byte, error) {
	env, err := DecodeEnvelope(record)
	if err != nil {
		return nil, err
	}
	return env.Open()
}

// Has reports whether any tier holds a record for key. It does not validate
// the record.
func (t *TieredStore) Has(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrInvalidKey
	}
	sk := storageKey(key)
	if _, err := t.bounded.Get(sk); err == nil {
		return true, nil
	} else if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if ok, err := t.chunked.Has(sk); err != nil || ok {
		return ok, err
	}
	if t.blob != nil {
		if _, err := t.blob.GetBlob(ctx, sk); err == nil {
			return true, nil
		} else if !errors.Is(err, ErrNotFound) {
			return false, err
		}
	}
	return false, nil
}

// Remove deletes the record for key from every tier. Removing an absent key
// is not an error.
func (t *TieredStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	sk := storageKey(key)
	if err := t.bounded.Remove(sk); err != nil {
		return err
	}
	if err := t.chunked.Remove(sk); err != nil {
		return err
	}
	if t.blob != nil {
		if err := t.blob.DeleteBlob(ctx, sk); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// EstimateQuota returns the bounded backend's current capacity snapshot.
func (t *TieredStore) EstimateQuota() (QuotaInfo, error) {
	return t.quota.Estimate()
}
