package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// faultStore wraps a BoundedStore and fails Set for configured keys.
type faultStore struct {
	BoundedStore
	failSet map[string]error
}

func (f *faultStore) Set(key, value string) error {
	if err, ok := f.failSet[key]; ok {
		return err
	}
	return f.BoundedStore.Set(key, value)
}

func newTestChunkedStore(t *testing.T) (*ChunkedStore, *MemStore) {
	t.Helper()
	mem := NewMemStore(64 << 20)
	return NewChunkedStore(mem, 1024, testLogger(t)), mem
}

// --- Write/Read tests ---

func TestChunkedStore_RoundTrip(t *testing.T) {
	chunked, mem := newTestChunkedStore(t)
	record := strings.Repeat("0123456789", 1000) // 10 chunks of 1024 minus change

	require.NoError(t, chunked.Write("key", record, 10000))

	got, found, err := chunked.Read("key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, record, got)

	// Metadata must describe exactly the chunks present.
	metaRaw, err := mem.Get("key_metadata")
	require.NoError(t, err)
	assert.Contains(t, metaRaw, `"totalChunks":10`)
}

func TestChunkedStore_ReadAbsent(t *testing.T) {
	chunked, _ := newTestChunkedStore(t)

	_, found, err := chunked.Read("never written")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestChunkedStore_MissingChunkIsCorruption(t *testing.T) {
	chunked, mem := newTestChunkedStore(t)
	record := strings.Repeat("x", 5000)
	require.NoError(t, chunked.Write("key", record, 5000))

	require.NoError(t, mem.Remove("key_2"))

	_, found, err := chunked.Read("key")
	assert.True(t, found)
	assert.ErrorIs(t, err, ErrCorruption)

	// The partial set is cleaned up, never served truncated.
	_, found, err = chunked.Read("key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestChunkedStore_MalformedMetadataIsCorruption(t *testing.T) {
	chunked, mem := newTestChunkedStore(t)
	require.NoError(t, mem.Set("key_metadata", "not json"))
	require.NoError(t, mem.Set("key_0", "stray chunk"))

	_, _, err := chunked.Read("key")
	assert.ErrorIs(t, err, ErrCorruption)

	_, err = mem.Get("key_0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChunkedStore_TamperedChunkIsCorruption(t *testing.T) {
	chunked, mem := newTestChunkedStore(t)
	record := strings.Repeat("y", 3000)
	require.NoError(t, chunked.Write("key", record, 3000))

	require.NoError(t, mem.Set("key_1", strings.Repeat("z", 1024)))

	_, _, err := chunked.Read("key")
	assert.ErrorIs(t, err, ErrCorruption)
}

// --- Partial-failure tests ---

func TestChunkedStore_FailedChunkRollsBack(t *testing.T) {
	mem := NewMemStore(64 << 20)
	boom := errors.New("backend refused")
	faulty := &faultStore{BoundedStore: mem, failSet: map[string]error{"key_2": boom}}
	chunked := NewChunkedStore(faulty, 1024, testLogger(t))

	err := chunked.Write("key", strings.Repeat("x", 5000), 5000)
	assert.ErrorIs(t, err, boom)

	// No metadata and no chunks may survive a partial write.
	keys, kerr := mem.Keys()
	require.NoError(t, kerr)
	assert.Empty(t, keys)
}

func TestChunkedStore_FailedMetadataRollsBack(t *testing.T) {
	mem := NewMemStore(64 << 20)
	boom := errors.New("backend refused")
	faulty := &faultStore{BoundedStore: mem, failSet: map[string]error{"key_metadata": boom}}
	chunked := NewChunkedStore(faulty, 1024, testLogger(t))

	err := chunked.Write("key", strings.Repeat("x", 5000), 5000)
	assert.ErrorIs(t, err, boom)

	keys, kerr := mem.Keys()
	require.NoError(t, kerr)
	assert.Empty(t, keys)
}

// --- Remove tests ---

func TestChunkedStore_RemoveIdempotent(t *testing.T) {
	chunked, mem := newTestChunkedStore(t)
	require.NoError(t, chunked.Write("key", strings.Repeat("x", 5000), 5000))

	assert.NoError(t, chunked.Remove("key"))
	assert.NoError(t, chunked.Remove("key"))

	keys, err := mem.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestChunkedStore_RemoveCatchesOrphansPastMetadataCount(t *testing.T) {
	chunked, mem := newTestChunkedStore(t)
	require.NoError(t, chunked.Write("key", strings.Repeat("x", 2048), 2048))

	// Orphan fragment from an older, larger chunk set.
	require.NoError(t, mem.Set("key_4", "stale"))

	require.NoError(t, chunked.Remove("key"))

	keys, err := mem.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestChunkedStore_HasReflectsMetadata(t *testing.T) {
	chunked, _ := newTestChunkedStore(t)

	ok, err := chunked.Has("key")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, chunked.Write("key", "record", 6))
	ok, err = chunked.Has("key")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChunkedStore_ReadSkipsDirectRecordUnderMetadataKey(t *testing.T) {
	chunked, mem := newTestChunkedStore(t)

	env, err := SealEnvelope([]byte("legit"), "")
	require.NoError(t, err)
	record, err := env.Marshal()
	require.NoError(t, err)
	require.NoError(t, mem.Set("report_metadata", string(record)))

	_, found, err := chunked.Read("report")
	require.NoError(t, err)
	assert.False(t, found)

	raw, err := mem.Get("report_metadata")
	require.NoError(t, err)
	assert.Equal(t, string(record), raw)
}

func TestChunkedStore_RemoveSkipsDirectRecordUnderMetadataKey(t *testing.T) {
	chunked, mem := newTestChunkedStore(t)

	env, err := SealEnvelope([]byte("legit"), "")
	require.NoError(t, err)
	record, err := env.Marshal()
	require.NoError(t, err)
	require.NoError(t, mem.Set("report_metadata", string(record)))

	require.NoError(t, chunked.Remove("report"))

	raw, err := mem.Get("report_metadata")
	require.NoError(t, err)
	assert.Equal(t, string(record), raw)
}
