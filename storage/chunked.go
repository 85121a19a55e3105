package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

const (
	// chunkProbeLimit bounds how far Remove scans for orphaned chunk keys.
	chunkProbeLimit = 10000

	// chunkProbeMisses is how many consecutive absent chunk keys Remove
	// tolerates before concluding the set is exhausted.
	chunkProbeMisses = 3
)

// ChunkedStore splits records too large for a single bounded-backend entry
// into fixed-size chunks plus one metadata record, and reassembles them on
// read. Chunks are written first and metadata last, so a metadata record
// always describes a complete chunk set; partial writes are rolled back
// best-effort.
type ChunkedStore struct {
	store     BoundedStore
	chunkSize int
	logger    *slog.Logger
	now       func() time.Time
}

// NewChunkedStore creates a chunked adapter over store. A non-positive
// chunkSize gets DefaultChunkSize; a nil logger gets slog.Default().
func NewChunkedStore(store BoundedStore, chunkSize int, logger *slog.Logger) *ChunkedStore {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChunkedStore{
		store:     store,
		chunkSize: chunkSize,
		logger:    logger,
		now:       time.Now,
	}
}

func chunkKey(key string, index int) string {
	return key + "_" + strconv.Itoa(index)
}

func metadataKey(key string) string {
	return key + "_metadata"
}

// Write splits record into chunks and persists them under key. On any chunk
// failure, previously written chunks are deleted in reverse order and the
// original error propagates; the metadata record is only written after every
// chunk has succeeded.
func (c *ChunkedStore) Write(key string, record string, originalSize int64) error {
	chunks, err := splitChunks(record, c.chunkSize)
	if err != nil {
		return err
	}

	// Compensation list: every successful sub-write is recorded so a later
	// failure can undo it.
	written := make([]string, 0, len(chunks)+1)
	rollback := func() {
		for i := len(written) - 1; i >= 0; i-- {
			if rmErr := c.store.Remove(written[i]); rmErr != nil {
				c.logger.Warn("chunk rollback failed",
					"key", written[i], "error", rmErr)
			}
		}
	}

	for i, chunk := range chunks {
		ck := chunkKey(key, i)
		if err := c.store.Set(ck, chunk); err != nil {
			rollback()
			return fmt.Errorf("storage: write chunk %d of %q: %w", i, key, err)
		}
		written = append(written, ck)
	}

	meta := ChunkMetadata{
		TotalChunks:    len(chunks),
		OriginalSize:   originalSize,
		CompressedSize: int64(len(record)),
		Timestamp:      c.now().Unix(),
		ChunkHash:      chunkDigest(chunks),
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		rollback()
		return fmt.Errorf("storage: marshal chunk metadata for %q: %w", key, err)
	}
	if err := c.store.Set(metadataKey(key), string(metaJSON)); err != nil {
		rollback()
		return fmt.Errorf("storage: write chunk metadata for %q: %w", key, err)
	}
	return nil
}

// Read reassembles the record stored under key. The second return value is
// false when no chunk set exists for key, letting the caller try other tiers.
// A malformed metadata record or a missing chunk is ErrCorruption; the
// partial set is cleaned up rather than returned truncated.
func (c *ChunkedStore) Read(key string) (string, bool, error) {
	metaRaw, err := c.store.Get(metadataKey(key))
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var meta ChunkMetadata
	if err := json.Unmarshal([]byte(metaRaw), &meta); err != nil {
		if isDirectRecord(metaRaw) {
			return "", false, nil
		}
		c.cleanup(key, chunkProbeLimit)
		return "", true, fmt.Errorf("%w: chunk metadata for %q: %w", ErrCorruption, key, err)
	}
	if meta.TotalChunks <= 0 {
		if isDirectRecord(metaRaw) {
			return "", false, nil
		}
		c.cleanup(key, chunkProbeLimit)
		return "", true, fmt.Errorf("%w: chunk metadata for %q: totalChunks %d",
			ErrCorruption, key, meta.TotalChunks)
	}

	chunks := make([]string, 0, meta.TotalChunks)
	for i := 0; i < meta.TotalChunks; i++ {
		chunk, err := c.store.Get(chunkKey(key, i))
		if errors.Is(err, ErrNotFound) {
			c.cleanup(key, meta.TotalChunks)
			return "", true, fmt.Errorf("%w: chunk %d of %d missing for %q",
				ErrCorruption, i, meta.TotalChunks, key)
		}
		if err != nil {
			return "", true, err
		}
		chunks = append(chunks, chunk)
	}

	record, err := joinChunks(chunks, meta.ChunkHash)
	if err != nil {
		c.cleanup(key, meta.TotalChunks)
		return "", true, fmt.Errorf("%w: reassemble %q: %w", ErrCorruption, key, err)
	}
	return record, true, nil
}

// isDirectRecord reports whether raw opens as a complete stored record. A
// direct record can legitimately live under a key ending in "_metadata"; its
// bytes are then not chunk metadata and must be left alone.
func isDirectRecord(raw string) bool {
	_, err := openRecord([]byte(raw))
	return err == nil
}

// Has reports whether a chunk set exists for key.
func (c *ChunkedStore) Has(key string) (bool, error) {
	_, err := c.store.Get(metadataKey(key))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the metadata record and all chunk keys for key. It probes
// past any recorded chunk count to catch orphans, stopping once several
// consecutive chunk keys are confirmed absent. Idempotent. A direct record
// living under the metadata key is left alone.
func (c *ChunkedStore) Remove(key string) error {
	mk := metadataKey(key)
	raw, err := c.store.Get(mk)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return err
	case isDirectRecord(raw):
		// Not chunk metadata; belongs to another key.
	default:
		if err := c.store.Remove(mk); err != nil {
			return err
		}
	}
	c.probeChunks(key, chunkProbeLimit)
	return nil
}

// cleanup best-effort deletes the metadata record and chunk keys of a set
// already known to be corrupt. Secondary failures are logged, never
// propagated.
func (c *ChunkedStore) cleanup(key string, limit int) {
	if rmErr := c.store.Remove(metadataKey(key)); rmErr != nil {
		c.logger.Warn("chunk metadata cleanup failed", "key", key, "error", rmErr)
	}
	c.probeChunks(key, limit)
}

// probeChunks best-effort deletes chunk keys 0..limit-1, stopping after
// chunkProbeMisses consecutive absent keys.
func (c *ChunkedStore) probeChunks(key string, limit int) {
	misses := 0
	for i := 0; i < limit && misses < chunkProbeMisses; i++ {
		ck := chunkKey(key, i)
		if _, err := c.store.Get(ck); errors.Is(err, ErrNotFound) {
			misses++
			continue
		}
		misses = 0
		if rmErr := c.store.Remove(ck); rmErr != nil {
			c.logger.Warn("chunk cleanup failed", "key", ck, "error", rmErr)
		}
	}
}
