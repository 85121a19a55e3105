package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompress_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("tiered storage test data for compression. "), 100)

	compressed, err := Compress(data)
	require.NoError(t, err)

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, decompressed)
}

func TestCompress_Empty(t *testing.T) {
	compressed, err := Compress(nil)
	require.NoError(t, err)

	decompressed, err := Decompress(compressed)
	require.NoError(t, err)
	assert.Empty(t, decompressed)
}

func TestCompress_SmallerThanOriginal(t *testing.T) {
	data := bytes.Repeat([]byte("AAAA"), 1000)
	compressed, err := Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))
}

func TestDecompress_Malformed(t *testing.T) {
	_, err := Decompress([]byte("definitely not a deflate stream"))
	assert.ErrorIs(t, err, ErrCompressionFailed)
}

func TestDecompressMethod_Unsupported(t *testing.T) {
	_, err := decompressMethod([]byte("data"), "zstd")
	assert.ErrorIs(t, err, ErrUnsupportedCompression)
}

func TestDecompressMethod_EmptyMethodMeansDeflate(t *testing.T) {
	data := []byte("legacy records omit the method field")
	compressed, err := Compress(data)
	require.NoError(t, err)

	decompressed, err := decompressMethod(compressed, "")
	require.NoError(t, err)
	assert.Equal(t, data, decompressed)
}
